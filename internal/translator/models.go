package translator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/valpere/subtran/internal"
)

// ListModels checks connectivity and credentials by listing the models the
// endpoint serves. Failures are classified like chat completion failures.
func (c *Client) ListModels(ctx context.Context, cfg Config) ([]string, error) {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.endpoint("")
	oc.HTTPClient = c.httpClient

	list, err := openai.NewClientWithConfig(oc).ListModels(ctx)
	if err != nil {
		return nil, classifyClientError(ctx, err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func classifyClientError(ctx context.Context, err error) *internal.TranslationError {
	if ctx.Err() != nil {
		return internal.AbortError("")
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		te := classifyStatus(apiErr.HTTPStatusCode, "", nil)
		if apiErr.Message != "" {
			te.Message = apiErr.Message
		}
		if apiErr.HTTPStatusCode == 404 && unknownModel(apiErr.Message, fmt.Sprint(apiErr.Code)) {
			te.Kind = internal.ModelError
			te.Retryable = false
		}
		return te
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return classifyStatus(reqErr.HTTPStatusCode, "", reqErr.Body)
	}

	return internal.NewTranslationError(internal.NetworkError, 0,
		fmt.Sprintf("request failed: %v", err), true, err)
}
