package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fortunecrack/server/internal/metrics"
	"github.com/fortunecrack/server/internal/model"
)

const (
	defaultTemperature = 0.7
	defaultMaxRetries  = 3
	defaultRetryWait   = time.Second
)

// Config はGeneratorの動作設定。ゼロ値のフィールドには既定値が適用される。
type Config struct {
	Model       string
	Temperature float32
	MaxRetries  int
	RetryWait   time.Duration
}

// Generator はプロフィールと日付から当日の運勢を生成する。
// バックエンド障害や不正な応答はロケール別フォールバックで吸収する。
// バックエンド未設定の設定エラーのみ呼び出し元に返る。
type Generator struct {
	client      CompletionClient
	modelName   string
	temperature float32
	maxRetries  int
	retryWait   time.Duration
	sleep       func(time.Duration)
	collector   metrics.MetricsCollector
}

// New は新しいGeneratorを生成する。ロケールテーブルの網羅性をここで検証し、
// 欠けがある場合はエラーを返す。
func New(client CompletionClient, cfg Config, collector metrics.MetricsCollector) (*Generator, error) {
	if err := validateLocaleTables(); err != nil {
		return nil, err
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = defaultRetryWait
	}
	if collector == nil {
		collector = metrics.Noop{}
	}

	return &Generator{
		client:      client,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryWait:   cfg.RetryWait,
		sleep:       time.Sleep,
		collector:   collector,
	}, nil
}

// validateLocaleTables は全ロケールテーブルがAllLocalesを網羅しているか検証する。
func validateLocaleTables() error {
	for _, loc := range model.AllLocales {
		if _, ok := localePrompts[loc]; !ok {
			return fmt.Errorf("locale prompt table is missing entry for %q", loc)
		}
		if _, ok := fallbackTexts[loc]; !ok {
			return fmt.Errorf("fallback table is missing entry for %q", loc)
		}
		if _, ok := weekdayNames[loc]; !ok {
			return fmt.Errorf("weekday name table is missing entry for %q", loc)
		}
		colors, ok := colorNames[loc]
		if !ok || len(colors) == 0 {
			return fmt.Errorf("color name table is missing entry for %q", loc)
		}
	}
	return nil
}

// GenerateDailyFortune は指定日の運勢を生成する。
// 最大maxRetries回の試行後も有効な応答が得られない場合はフォールバック文面を使用し、
// 部分的な応答はフィールド単位で補完する。
// 唯一のエラーはバックエンド未設定（GENERATOR_NOT_CONFIGURED）で、
// この場合はリトライもフォールバックもせず即座に返す。
func (g *Generator) GenerateDailyFortune(ctx context.Context, user *model.UserProfile, date string) (*model.GeneratedFortune, error) {
	start := time.Now()
	defer func() {
		g.collector.RecordGenerationLatency(time.Since(start))
	}()

	messages := []model.ChatMessage{
		{Role: model.ChatRoleSystem, Content: systemPrompt},
		{Role: model.ChatRoleUser, Content: buildUserPrompt(user, date)},
	}

	var parsed *fortunePayload
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		content, err := g.client.CreateCompletion(ctx, messages, g.temperature, true)
		if err != nil {
			// 設定不備は恒久的な失敗なのでリトライせずそのまま返す
			var apiErr *model.APIError
			if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeGeneratorNotConfigured {
				return nil, apiErr
			}
		}
		if err == nil {
			p, perr := parseFortunePayload(content)
			if perr == nil {
				parsed = p
				break
			}
			err = perr
		}

		slog.Warn("運勢生成の試行が失敗した",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
		if attempt < g.maxRetries-1 {
			g.collector.RecordGenerationRetry()
			g.sleep(g.retryWait)
		}
	}

	if parsed == nil {
		g.collector.RecordGenerationFallback()
		slog.Warn("全試行が失敗したためフォールバック文面を使用する", slog.String("locale", string(user.Locale)))
		parsed = &fortunePayload{}
	} else {
		g.collector.RecordGenerationSuccess()
	}

	fb := fallbackFor(user.Locale)
	result := &model.GeneratedFortune{
		Summary:   parsed.Summary,
		FullText:  parsed.FullText,
		Color:     parsed.Color,
		Precision: model.BirthTimeAccuracy(parsed.Precision),
		Model:     g.modelName,
		Keywords:  parsed.Keywords,
		Quote:     parsed.Quote,
	}
	if result.Summary == "" {
		result.Summary = fb.Summary
	}
	if result.FullText == "" {
		result.FullText = fb.FullText
	}
	if result.Color == "" {
		result.Color = PickColor(user)
	}
	if result.Precision == "" {
		result.Precision = user.BirthTimeAccuracy
	}
	if result.Precision == "" {
		result.Precision = model.AccuracyUnknown
	}
	if result.Quote == "" {
		result.Quote = fb.Quote
	}

	return result, nil
}

// Chat はフォローアップ質問のチャット補完を実行する。
// 生成と異なりフォールバックせず、エラーをそのまま返す。
func (g *Generator) Chat(ctx context.Context, messages []model.ChatMessage, temperature float32) (string, error) {
	if temperature <= 0 {
		temperature = g.temperature
	}
	return g.client.CreateCompletion(ctx, messages, temperature, false)
}
