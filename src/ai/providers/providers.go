package providers

import (
	_ "github.com/stake-plus/veritrust/src/ai/gemini"
	_ "github.com/stake-plus/veritrust/src/ai/openai"
)
