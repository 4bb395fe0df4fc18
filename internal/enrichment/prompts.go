package enrichment

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/pkg/utils"
)

var (
	spamFieldRe = regexp.MustCompile(`(?i)"?(?:is_?spam|spam)"?\s*:\s*(true|false)`)
	jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// descriptionPromptLimit bounds how much of a posting is sent for classification
const descriptionPromptLimit = 4000

func buildSummaryPrompt(url, content string) string {
	return fmt.Sprintf(`You are helping job seekers understand who is hiring. Using only the page content below, write a neutral summary of the company in 2-3 sentences: what it does, who its customers are, and anything notable about its size or mission.

IMPORTANT RULES:
1. Return ONLY the summary text, no headings, lists or markdown
2. Do not invent facts that are not in the content
3. If the content does not describe a company, reply with exactly: UNKNOWN

PAGE URL: %s

PAGE CONTENT:
%s`, url, content)
}

func buildSpamPrompt(job jobstore.Job) string {
	return fmt.Sprintf(`You are a job board moderator. Decide whether the posting below is spam or a scam (fake recruiter, upfront fees, pyramid schemes, crypto or money-transfer schemes, contact only through messaging apps, or content unrelated to a real job).

Return ONLY a JSON object of the form {"spam": true} or {"spam": false}.

TITLE: %s
COMPANY: %s
LOCATION: %s
SALARY: %s
APPLY LINK: %s

DESCRIPTION:
%s`,
		job.Title, job.CompanyName, job.Location, job.SalaryRange, job.ApplyLink,
		utils.Truncate(job.Description, descriptionPromptLimit))
}

// stripCodeFences removes a surrounding ``` or ```json block
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "{}") {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// parseSummary returns nil when the model produced nothing usable
func parseSummary(text string) *string {
	text = strings.Trim(stripCodeFences(text), "\"' \n")
	if text == "" || strings.EqualFold(text, "unknown") {
		return nil
	}
	return &text
}

// parseSpamVerdict accepts {"spam":bool}, {"isSpam":bool}, a fenced JSON
// block, or a bare true/false/yes/no.
func parseSpamVerdict(text string) (bool, error) {
	text = stripCodeFences(text)

	if block := jsonBlockRe.FindString(text); block != "" {
		var verdict struct {
			Spam   *bool `json:"spam"`
			IsSpam *bool `json:"isSpam"`
		}
		if err := json.Unmarshal([]byte(block), &verdict); err == nil {
			switch {
			case verdict.Spam != nil:
				return *verdict.Spam, nil
			case verdict.IsSpam != nil:
				return *verdict.IsSpam, nil
			}
		}
	}

	if m := spamFieldRe.FindStringSubmatch(text); m != nil {
		return strings.EqualFold(m[1], "true"), nil
	}

	switch strings.ToLower(strings.Trim(text, " .!\n")) {
	case "true", "yes", "spam":
		return true, nil
	case "false", "no", "not spam":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized spam verdict: %q", utils.Truncate(text, 200))
}

// ContainsRedFlag reports whether any configured phrase appears in the
// posting's title, company or description (case-insensitive)
func ContainsRedFlag(job jobstore.Job, redFlags []string) bool {
	if len(redFlags) == 0 {
		return false
	}
	combined := strings.ToLower(job.Title + " " + job.CompanyName + " " + job.Description)
	for _, flag := range redFlags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
