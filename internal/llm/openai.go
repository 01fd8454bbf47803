package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient implements Client on top of the OpenAI chat completions API.
type OpenAIClient struct {
	client    openai.Client
	modelName string
}

func NewOpenAIClient(apiKey, modelName string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is not set")
	}
	if modelName == "" {
		modelName = defaultOpenAIModel
	}
	return &OpenAIClient{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, turns []Turn, instruction string, structured bool) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("turn list is empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	messages = append(messages, openai.SystemMessage(instruction))
	for _, t := range turns {
		switch t.Role {
		case RoleModel:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.modelName),
		Messages: messages,
	}
	if structured {
		params.Temperature = openai.Float(0.2)
	} else {
		params.Temperature = openai.Float(0.7)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: openai request: %v", ErrTransport, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	choice := completion.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: completion stopped by content filter", ErrContentRejected)
	}

	content := choice.Message.Content
	if content == "" {
		if structured {
			return "", fmt.Errorf("%w: empty completion content", ErrMalformedResponse)
		}
		log.Println("OpenAI completion was empty, substituting canned reply.")
		return cannedReply, nil
	}

	return content, nil
}
