package prompts

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed templates/select_categories_prompt.tmpl
var selectCategoriesPromptTemplate string

type SelectCategoriesPrompt struct {
	Categories string
	Question   string
}

func BuildSelectCategoriesPrompt(data SelectCategoriesPrompt) (string, error) {
	tmpl, err := template.New("select_categories").Parse(selectCategoriesPromptTemplate)
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
