package instrument

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelationID(ctx))

	ctx = SetCorrelationID(ctx, "cid-1")
	assert.Equal(t, "cid-1", GetCorrelationID(ctx))
}

func TestMaskAttr(t *testing.T) {
	keys := buildMaskKeys([]string{" Password ", "otp", ""})
	assert.Len(t, keys, 2)

	got := maskAttr(slog.String("password", "secret"), keys)
	assert.Equal(t, "***", got.Value.String())

	got = maskAttr(slog.String("body", `{"mobile":"0812","otp":"123456"}`), keys)
	assert.JSONEq(t, `{"mobile":"0812","otp":"***"}`, got.Value.String())

	got = maskAttr(slog.Group("req", slog.String("password", "x"), slog.String("mobile", "0812")), keys)
	group := got.Value.Group()
	assert.Equal(t, "***", group[0].Value.String())
	assert.Equal(t, "0812", group[1].Value.String())

	got = maskAttr(slog.Any("form", map[string]string{"otp": "1", "username": "u"}), keys)
	assert.Equal(t, map[string]any{"otp": "***", "username": "u"}, got.Value.Any())

	got = maskAttr(slog.String("plain", "not json"), keys)
	assert.Equal(t, "not json", got.Value.String())
}

func TestMaskAttrMultiValue(t *testing.T) {
	keys := buildMaskKeys([]string{"password", "cookie"})

	got := maskAttr(slog.Any("form", url.Values{"username": {"0812"}, "password": {"x"}}), keys)
	assert.Equal(t, map[string]any{"username": "0812", "password": "***"}, got.Value.Any())

	got = maskAttr(slog.Any("headers", http.Header{"Cookie": {"sid"}, "Accept": {"a", "b"}}), keys)
	assert.Equal(t, map[string]any{"Cookie": "***", "Accept": []string{"a", "b"}}, got.Value.Any())

	got = maskAttr(slog.Any("raw", []byte(`[{"password":"x"}]`)), keys)
	assert.JSONEq(t, `[{"password":"***"}]`, got.Value.Any().(string))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" warning "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestReplaceAttrSource(t *testing.T) {
	got := replaceAttr(nil, slog.Any(slog.SourceKey, &slog.Source{File: "/src/app/internal/adminotp/module.go", Line: 12}))
	assert.Equal(t, "file", got.Key)
	assert.Equal(t, "internal/adminotp/module.go:12", got.Value.String())

	got = replaceAttr(nil, slog.Any(slog.SourceKey, &slog.Source{File: "/go/pkg/mod/x.go", Line: 1}))
	assert.True(t, got.Equal(slog.Attr{}))
}
