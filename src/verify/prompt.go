package verify

import "github.com/stake-plus/veritrust/src/ai/core"

// SystemInstruction frames every analysis call.
const SystemInstruction = `You are a world-class digital forensics and authenticity expert. Your goal is to establish confidence in digital interactions by analyzing content for synthesis, manipulation, and intent.
Focus on:
1. Content Provenance: Is the style consistent with human creation?
2. Semantic Integrity: Are there logical inconsistencies often found in GenAI?
3. Intent Analysis: Is the purpose informative, manipulative, or deceptive?
Return the analysis in a structured JSON format matching the provided schema.`

// ResponseSchema is the exact object the model must return.
var ResponseSchema = &core.Schema{
	Type: "object",
	Properties: map[string]*core.Schema{
		"trustScore": {
			Type:        "integer",
			Description: "A score from 0 to 100 indicating trust level.",
			Minimum:     core.Float(0),
			Maximum:     core.Float(100),
		},
		"authenticityRating": {
			Type:        "string",
			Description: "One of: Authentic, Suspicious, Synthetic, Undetermined",
			Enum:        ratingNames(),
		},
		"summary": {
			Type:        "string",
			Description: "A concise executive summary of the findings.",
		},
		"analysisPoints": {
			Type:        "array",
			Items:       &core.Schema{Type: "string"},
			Description: "Specific technical indicators found (e.g., semantic drift, frequency anomalies).",
		},
		"intentAnalysis": {
			Type:        "string",
			Description: "Analysis of the likely intent behind the content.",
		},
		"metadata": {
			Type:        "object",
			Description: "Additional technical metadata.",
			Properties: map[string]*core.Schema{
				MetaDetectedFormat: {Type: "string", Description: "The format detected by the model."},
				"processingTime":   {Type: "number", Description: "Internal processing overhead estimate."},
			},
			Order:    []string{MetaDetectedFormat, "processingTime"},
			Required: []string{MetaDetectedFormat},
		},
	},
	Order:    []string{"trustScore", "authenticityRating", "summary", "analysisPoints", "intentAnalysis", "metadata"},
	Required: []string{"trustScore", "authenticityRating", "summary", "analysisPoints", "intentAnalysis", "metadata"},
}

func ratingNames() []string {
	out := make([]string, 0, len(Ratings))
	for _, r := range Ratings {
		out = append(out, string(r))
	}
	return out
}

func textInstruction(text string) string {
	return `Analyze the following text for authenticity and intent: "` + text + `"`
}

func mediaInstruction(kind ContentKind) string {
	return "Analyze this " + string(kind) + " for authenticity, digital signatures, and potential synthesis indicators."
}
