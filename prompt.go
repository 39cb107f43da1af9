package cpbrules

import "strings"

// SystemInstruction frames the model as an extraction tool.
const SystemInstruction = "You are an NLP expert that extracts and transforms unstructured text into JSON."

// schemaDescription is the target shape given to the model.
const schemaDescription = `{
    "title": string,
    "insurance_name": string,
    "rules": {
        "rule_id": string,
        "rule_text": string,
        "operator": "AND" | "OR" | "NONE" | null,
        "rules": list of nested rules or null
    }
}`

// BuildPrompt returns the user instruction asking the model to convert the
// policy text into a guideline.
func BuildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Act as an NLP expert. Extract the medical necessity guidelines from the text provided below ")
	sb.WriteString("and convert them into a structured JSON object that conforms exactly to the following schema:\n\n")
	sb.WriteString("Schema:\n")
	sb.WriteString(schemaDescription)
	sb.WriteString("\n\nEach rule may nest further rules to any depth. Use \"operator\" to say how a rule's ")
	sb.WriteString("children combine; leave it null on rules without children.\n\n")
	sb.WriteString("The text to be referenced is:\n<policy>\n")
	sb.WriteString(text)
	sb.WriteString("\n</policy>\n\n")
	sb.WriteString("Output only the JSON. Do not add explanations and do not wrap it in markdown code fences.")
	return sb.String()
}

// BuildCorrectionPrompt returns a follow-up instruction after the model
// produced output that could not be used. It repeats the original request
// together with the rejected output and the reason it was rejected.
func BuildCorrectionPrompt(text, previous string, err error) string {
	var sb strings.Builder
	sb.WriteString(BuildPrompt(text))
	sb.WriteString("\n\nYour previous answer was rejected.\n")
	sb.WriteString("Previous answer:\n<previous>\n")
	sb.WriteString(previous)
	sb.WriteString("\n</previous>\n")
	sb.WriteString("Reason: ")
	sb.WriteString(ErrorMessage(err))
	sb.WriteString("\n\nReturn a corrected JSON object only.")
	return sb.String()
}
