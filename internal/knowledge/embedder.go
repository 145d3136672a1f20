package knowledge

import (
	"context"
	"errors"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultEmbeddingModel 未显式配置时使用的向量化模型
const DefaultEmbeddingModel = "text-embedding-3-small"

// Embedder 政策文本向量化接口
//
// 同一文本与模型版本的输出是确定的；向量宽度在模型选定后固定，
// 入库与检索必须使用同一实例以保证宽度一致。
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Ready() bool
}

// embeddingWidth 返回模型的向量宽度，未知模型按默认宽度处理
func embeddingWidth(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 1536
	}
}

// unsetEmbedder 未配置API密钥时的占位实现，Ready恒为false
type unsetEmbedder struct{}

func (unsetEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding provider not configured")
}

func (unsetEmbedder) Dimensions() int { return 0 }
func (unsetEmbedder) Ready() bool     { return false }

// OpenAIEmbedder 基于OpenAI Embedding API的向量化实现
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	width  int

	// 串行化上游调用，避免触发限流
	mu sync.Mutex
}

// NewOpenAIEmbedder 创建向量化器
//
// 密钥为空时返回占位实现，启动不中断但问答走降级路径。
func NewOpenAIEmbedder(apiKey, model string) Embedder {
	if strings.TrimSpace(apiKey) == "" {
		return unsetEmbedder{}
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(strings.TrimSpace(apiKey)),
		model:  model,
		width:  embeddingWidth(model),
	}
}

// Embed 向量化一段政策文本
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contained no vectors")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	copy(vector, resp.Data[0].Embedding)
	return vector, nil
}

// Dimensions 返回当前模型的向量宽度
func (e *OpenAIEmbedder) Dimensions() int { return e.width }

// Ready 客户端是否可用
func (e *OpenAIEmbedder) Ready() bool { return e.client != nil }
