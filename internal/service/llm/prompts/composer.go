package prompts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// TemplateStore loads writing-style templates.
type TemplateStore interface {
	// LoadTemplate returns the content of a template by id.
	LoadTemplate(ctx context.Context, id uint) (string, error)
	// LoadDefault returns the caller's default template, or the global
	// default when userID is nil or the caller has none.
	LoadDefault(ctx context.Context, userID *uint) (string, error)
}

// ImageMode says how product images reach the model.
type ImageMode int

const (
	ImageModeNone ImageMode = iota
	// ImageModeAttached means raw images accompany the message.
	ImageModeAttached
	// ImageModeExtracted means image content was transcribed to text.
	ImageModeExtracted
)

// ComposeInput is everything needed to build a generation prompt.
type ComposeInput struct {
	TemplateID  *uint
	UserID      *uint
	TargetForum string
	ProductInfo string
	ImageMode   ImageMode
	ImageText   string
}

// Prompt is a system instruction plus the user message. TextOnlyUser is
// set when images are attached and is the message to send if they get dropped.
type Prompt struct {
	System       string
	User         string
	TextOnlyUser string
}

// Composer assembles generation prompts from stored templates and product data.
type Composer struct {
	store           TemplateStore
	defaultTemplate string
	now             func() time.Time
	logger          llm.Logger
}

// NewComposer creates a composer. store may be nil, in which case the builtin
// template is always used.
func NewComposer(store TemplateStore, logger llm.Logger) *Composer {
	if logger == nil {
		logger = llm.NopLogger{}
	}
	return &Composer{
		store:           store,
		defaultTemplate: DefaultStyleTemplate,
		now:             time.Now,
		logger:          logger,
	}
}

// Compose builds the system instruction and the user message.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) Prompt {
	prompt := Prompt{
		System: SystemInstructions + "\n\n" + c.resolveTemplate(ctx, in.TemplateID, in.UserID),
		User:   c.userMessage(in),
	}
	if in.ImageMode == ImageModeAttached {
		textOnly := in
		textOnly.ImageMode = ImageModeNone
		prompt.TextOnlyUser = c.userMessage(textOnly)
	}
	return prompt
}

// resolveTemplate walks explicit id, then the caller's or global default,
// then the builtin template.
func (c *Composer) resolveTemplate(ctx context.Context, templateID, userID *uint) string {
	if c.store == nil {
		return c.defaultTemplate
	}

	if templateID != nil {
		content, err := c.store.LoadTemplate(ctx, *templateID)
		if err == nil && strings.TrimSpace(content) != "" {
			return content
		}
		c.logger.Warn("Prompt template unavailable, using default",
			"template_id", *templateID,
			"error", err)
	}

	content, err := c.store.LoadDefault(ctx, userID)
	if err == nil && strings.TrimSpace(content) != "" {
		return content
	}
	if err != nil {
		c.logger.Debug("No stored default template", "error", err)
	}
	return c.defaultTemplate
}

func (c *Composer) userMessage(in ComposeInput) string {
	year := c.now().Year()

	var sb strings.Builder
	fmt.Fprintf(&sb, "今年是 %d 年。文章中若提到年份，一律使用 %d 年，不要寫成其他年份。\n", year, year)
	fmt.Fprintf(&sb, "目標看板：%s\n\n", in.TargetForum)
	sb.WriteString("以下是商品資料，請根據這些資訊撰寫文章：\n\n")
	sb.WriteString(in.ProductInfo)

	switch in.ImageMode {
	case ImageModeAttached:
		sb.WriteString("\n\n📷 已附上商品圖片，請參考圖片中的外觀、規格與細節，寫出更具體的描述。")
	case ImageModeExtracted:
		if strings.TrimSpace(in.ImageText) != "" {
			sb.WriteString("\n\n📷 以下是從商品圖片擷取出的資訊，請參考撰寫：\n\n")
			sb.WriteString(in.ImageText)
		}
	}

	return sb.String()
}
