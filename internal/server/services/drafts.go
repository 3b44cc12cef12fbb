package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/sashabaranov/go-openai"
)

const (
	maxDraftTitle = 120
	maxDraftBody  = 4000

	ModeError = "error"

	draftPrompt = "You are an internal compliance assistant helping draft responses to whistleblower reports. " +
		"Summarize the following report in Japanese, include risk indicators (low/medium/high) and first response steps. " +
		"Keep within 250 Japanese characters.\n\n件名: %s\n本文: %s"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var newChatClient = func(apiKey string) chatCompleter {
	return openai.NewClient(apiKey)
}

type DraftInput struct {
	Title string
	Body  string
}

type DraftResult struct {
	Draft string `json:"draft"`
	Mode  string `json:"mode"`
}

// DraftService asks a language model for a first response to a report.
// Without an API key, or when the call fails, it returns a canned draft.
type DraftService struct {
	client chatCompleter
	model  string
	audit  *AuditService
	logger logging.Logger
}

func NewDraftService(apiKey, model string, audit *AuditService, logger logging.Logger) *DraftService {
	s := &DraftService{model: model, audit: audit, logger: logger.With("module", "drafts")}
	if key := strings.TrimSpace(apiKey); key != "" {
		s.client = newChatClient(key)
	}
	return s
}

func (s *DraftService) Create(ctx context.Context, tenantID string, in DraftInput) (*DraftResult, error) {
	if strings.TrimSpace(in.Title) == "" || runeLen(in.Title) > maxDraftTitle {
		return nil, validationf("title must be 1..%d characters", maxDraftTitle)
	}
	if strings.TrimSpace(in.Body) == "" || runeLen(in.Body) > maxDraftBody {
		return nil, validationf("body must be 1..%d characters", maxDraftBody)
	}
	target := firstRunes(in.Title, 60)

	if s.client == nil {
		s.audit.RecordQuietly(ctx, tenantID, AuditEntry{Action: "draft.create", Detail: "mode=dryrun", TargetID: target})
		return &DraftResult{Draft: fallbackDraft(in), Mode: ModeDryRun}, nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(draftPrompt, in.Title, in.Body)},
		},
	})
	if err != nil {
		s.logger.Warn(ctx, "draft generation failed", "error", err)
		s.audit.RecordQuietly(ctx, tenantID, AuditEntry{Action: "draft.create.error", Detail: err.Error(), TargetID: target})
		return &DraftResult{Draft: fallbackDraft(in), Mode: ModeError}, nil
	}

	draft := ""
	if len(resp.Choices) > 0 {
		draft = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if draft == "" {
		draft = fallbackDraft(in)
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "draft.create",
		Detail:   fmt.Sprintf("mode=live model=%s", s.model),
		TargetID: target,
	})
	return &DraftResult{Draft: draft, Mode: ModeLive}, nil
}

func fallbackDraft(in DraftInput) string {
	snippet := whitespaceRun.ReplaceAllString(firstRunes(in.Body, 120), " ")
	return fmt.Sprintf("【ドラフト(サンプル)】\n件名: %s\n要約: %s...\n初動: 受領しました。詳細を確認し、担当部署へ連携してください。", in.Title, snippet)
}
