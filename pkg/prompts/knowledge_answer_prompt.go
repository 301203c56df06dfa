package prompts

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed templates/knowledge_answer_prompt.tmpl
var knowledgeAnswerPromptTemplate string

type KnowledgeAnswerPrompt struct {
	Keypoints string
	Question  string
	Language  string
}

func BuildKnowledgeAnswerPrompt(data KnowledgeAnswerPrompt) (string, error) {
	tmpl, err := template.New("knowledge_answer").Parse(knowledgeAnswerPromptTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
