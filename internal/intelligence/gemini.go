package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/simpyt/search-room/internal/domain"
)

// GeminiScorer asks a generative model to judge how compatible two housing
// wishlists are. The model returns "score|comment"; everything else about the
// compatibility math stays deterministic and local.
type GeminiScorer struct {
	model *genai.GenerativeModel
}

func NewGeminiScorer(ctx context.Context, apiKey string) (*GeminiScorer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiScorer{model: client.GenerativeModel("models/gemini-1.5-pro")}, nil
}

func (g *GeminiScorer) ScoreCompatibility(ctx context.Context, a, b domain.UserCriteria) (float64, string, error) {
	aJSON, _ := json.Marshal(a.Criteria)
	bJSON, _ := json.Marshal(b.Criteria)
	prompt := fmt.Sprintf(
		"Two people are searching for a home together. Their wishlists:\n"+
			"Person A: %s\nPerson B: %s\n"+
			"Rate how compatible the wishlists are from 0 (incompatible) to 100 (identical), "+
			"then one short sentence explaining the biggest agreement or disagreement. "+
			"Answer exactly as: <number>|<sentence>",
		aJSON, bJSON,
	)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, "", fmt.Errorf("gemini generate: %w", err)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	score, comment, err := parseScoreReply(sb.String())
	if err != nil {
		return 0, "", err
	}
	return score, comment, nil
}

func parseScoreReply(reply string) (float64, string, error) {
	reply = strings.TrimSpace(reply)
	numPart := reply
	comment := ""
	if idx := strings.Index(reply, "|"); idx >= 0 {
		numPart = strings.TrimSpace(reply[:idx])
		comment = strings.TrimSpace(reply[idx+1:])
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(numPart, "%"), 64)
	if err != nil {
		return 0, "", fmt.Errorf("unparseable scorer reply %q", reply)
	}
	return clampScore(score), comment, nil
}
