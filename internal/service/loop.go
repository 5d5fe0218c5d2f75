package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/vantage-bot/gateway/internal/adapter/llm"
)

const fallbackNoResponse = "I executed the tools but couldn't generate a response."

// runToolLoop sends the transcript to the inference endpoint and round-trips
// tool calls until a text-only response arrives or the iteration cap is hit.
// Tool failures are fed back to the model as error results, never aborting
// the loop.
func (s *Service) runToolLoop(ctx context.Context, turnID string, chatID int64, messages []llm.ChatMessage) (string, error) {
	temperature := s.config.ModelTemperature
	maxTokens := s.config.ModelMaxTokens

	for iteration := 0; iteration < s.config.MaxToolIterations; iteration++ {
		resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
			Model:       s.config.ModelName,
			Messages:    messages,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			Tools:       s.registry.Definitions(),
			ToolChoice:  "auto",
		})
		if err != nil {
			return "", fmt.Errorf("inference call failed: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
			return "", fmt.Errorf("inference response carried no message")
		}

		message := resp.Choices[0].Message
		calls := message.ToolCalls
		if len(calls) == 0 || malformedToolCalls(calls) {
			return message.Content, nil
		}

		log.Printf("[%s] model requested %d tool calls (iteration %d)", turnID, len(calls), iteration+1)
		messages = append(messages, *message)

		for _, call := range calls {
			result := s.executeToolCall(ctx, turnID, chatID, call)
			messages = append(messages, llm.ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    string(result),
			})
		}

		// Keep the typing indicator alive across inference rounds.
		if s.bot != nil {
			if err := s.bot.SendChatAction(ctx, chatID, "typing"); err != nil {
				log.Printf("WARN: [%s] failed to send chat action: %v", turnID, err)
			}
		}
	}

	log.Printf("WARN: [%s] no text response after %d iterations", turnID, s.config.MaxToolIterations)
	return fallbackNoResponse, nil
}

// malformedToolCalls reports whether the tool call list is unusable, in which
// case the response degrades to text-only best effort.
func malformedToolCalls(calls []llm.ToolCall) bool {
	for _, call := range calls {
		if call.Function.Name == "" {
			return true
		}
	}
	return false
}

// executeToolCall runs one tool call through the policy gate and the registry.
// Every failure mode yields an error payload destined for the transcript; the
// model is expected to explain it to the user.
func (s *Service) executeToolCall(ctx context.Context, turnID string, chatID int64, call llm.ToolCall) json.RawMessage {
	name := call.Function.Name

	args := strings.TrimSpace(call.Function.Arguments)
	if args == "" {
		args = "{}"
	}
	if !json.Valid([]byte(args)) {
		log.Printf("WARN: [%s] tool %s received malformed arguments", turnID, name)
		return errorResult(fmt.Sprintf("invalid arguments for tool %s", name))
	}

	if s.policyEngine != nil {
		var argsMap map[string]interface{}
		if err := json.Unmarshal([]byte(args), &argsMap); err != nil || argsMap == nil {
			argsMap = map[string]interface{}{}
		}
		decision, reason, err := s.policyEngine.Evaluate(ctx, map[string]interface{}{
			"tool_name": name,
			"chat_id":   chatID,
			"args":      argsMap,
		})
		if err != nil {
			log.Printf("WARN: [%s] policy evaluation failed for %s: %v", turnID, name, err)
		} else if decision == "block" {
			log.Printf("[%s] tool %s blocked by policy: %s", turnID, name, reason)
			return errorResult(fmt.Sprintf("tool %s is blocked by policy", name))
		}
	}

	log.Printf("[%s] executing tool %s (call %s)", turnID, name, call.ID)
	result, err := s.registry.Execute(ctx, name, json.RawMessage(args))
	if err != nil {
		log.Printf("WARN: [%s] tool %s failed: %v", turnID, name, err)
		return errorResult(err.Error())
	}
	return result
}

func errorResult(msg string) json.RawMessage {
	payload, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return json.RawMessage(`{"error":"tool execution failed"}`)
	}
	return payload
}
