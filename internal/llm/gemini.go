package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash-latest"

// GeminiClient implements Client on top of the Google Generative AI API.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) Generate(ctx context.Context, turns []Turn, instruction string, structured bool) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("turn list is empty")
	}
	last := turns[len(turns)-1]
	if last.Role != RoleUser {
		return "", fmt.Errorf("last turn must be from the user")
	}

	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(instruction)},
	}

	temp := float32(0.7)
	cfg := genai.GenerationConfig{}
	if structured {
		temp = 0.2
		cfg.ResponseMIMEType = "application/json"
	}
	cfg.Temperature = &temp
	model.GenerationConfig = cfg

	chatSession := model.StartChat()
	for _, t := range turns[:len(turns)-1] {
		chatSession.History = append(chatSession.History, &genai.Content{
			Role:  geminiRole(t.Role),
			Parts: []genai.Part{genai.Text(t.Content)},
		})
	}

	resp, err := chatSession.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("%w: gemini SendMessage: %v", ErrTransport, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("%w: prompt blocked (%v)", ErrContentRejected, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrMalformedResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: candidate stopped for safety", ErrContentRejected)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: candidate had no content parts", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if text.Len() == 0 {
		if structured {
			return "", fmt.Errorf("%w: empty structured response", ErrMalformedResponse)
		}
		log.Println("Gemini response was empty after processing, substituting canned reply.")
		return cannedReply, nil
	}

	return text.String(), nil
}

func geminiRole(r Role) string {
	if r == RoleModel {
		return "model"
	}
	return "user"
}
