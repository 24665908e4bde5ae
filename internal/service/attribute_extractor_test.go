package service

import (
	"testing"

	"github.com/tedlabs/identity/internal/model"
)

func TestExtractIdentity(t *testing.T) {
	tests := []struct {
		name     string
		provider model.Provider
		attrs    map[string]any
		want     SocialIdentity
	}{
		{
			name:     "google full payload",
			provider: model.ProviderGoogle,
			attrs: map[string]any{
				"sub":   "g-123",
				"email": "alice@example.com",
				"name":  "Alice",
			},
			want: SocialIdentity{ProviderUserID: "g-123", Email: "alice@example.com", DisplayName: "Alice"},
		},
		{
			name:     "google missing email",
			provider: model.ProviderGoogle,
			attrs:    map[string]any{"sub": "g-123", "name": "Alice"},
			want:     SocialIdentity{ProviderUserID: "g-123", DisplayName: "Alice"},
		},
		{
			name:     "kakao numeric id is stringified",
			provider: model.ProviderKakao,
			attrs: map[string]any{
				"id": float64(1234567890),
				"kakao_account": map[string]any{
					"email": "bob@kakao.com",
					"profile": map[string]any{
						"nickname": "bob",
					},
				},
			},
			want: SocialIdentity{ProviderUserID: "1234567890", Email: "bob@kakao.com", DisplayName: "bob"},
		},
		{
			name:     "kakao missing account block",
			provider: model.ProviderKakao,
			attrs:    map[string]any{"id": float64(42)},
			want:     SocialIdentity{ProviderUserID: "42"},
		},
		{
			name:     "kakao account without profile",
			provider: model.ProviderKakao,
			attrs: map[string]any{
				"id": "k-7",
				"kakao_account": map[string]any{
					"email": "c@kakao.com",
				},
			},
			want: SocialIdentity{ProviderUserID: "k-7", Email: "c@kakao.com"},
		},
		{
			name:     "naver nested response",
			provider: model.ProviderNaver,
			attrs: map[string]any{
				"response": map[string]any{
					"id":    "n-1",
					"email": "dan@naver.com",
					"name":  "Dan",
				},
			},
			want: SocialIdentity{ProviderUserID: "n-1", Email: "dan@naver.com", DisplayName: "Dan"},
		},
		{
			name:     "naver missing response block",
			provider: model.ProviderNaver,
			attrs:    map[string]any{"id": "ignored"},
			want:     SocialIdentity{},
		},
		{
			name:     "apple name as string",
			provider: model.ProviderApple,
			attrs: map[string]any{
				"sub":   "a-1",
				"email": "eve@icloud.com",
				"name":  "Eve Stone",
			},
			want: SocialIdentity{ProviderUserID: "a-1", Email: "eve@icloud.com", DisplayName: "Eve Stone"},
		},
		{
			name:     "apple structured name",
			provider: model.ProviderApple,
			attrs: map[string]any{
				"sub": "a-2",
				"name": map[string]any{
					"firstName": "Frank",
					"lastName":  "Hill",
				},
			},
			want: SocialIdentity{ProviderUserID: "a-2", DisplayName: "Frank Hill"},
		},
		{
			name:     "apple structured name with only last name",
			provider: model.ProviderApple,
			attrs: map[string]any{
				"sub": "a-3",
				"name": map[string]any{
					"lastName": "Hill",
				},
			},
			want: SocialIdentity{ProviderUserID: "a-3", DisplayName: "Hill"},
		},
		{
			name:     "empty payload yields empty identity",
			provider: model.ProviderGoogle,
			attrs:    map[string]any{},
			want:     SocialIdentity{},
		},
		{
			name:     "wrongly typed fields are ignored",
			provider: model.ProviderGoogle,
			attrs: map[string]any{
				"sub":   float64(99),
				"email": true,
				"name":  []any{"x"},
			},
			want: SocialIdentity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractIdentity(tt.provider, tt.attrs)
			if got != tt.want {
				t.Errorf("ExtractIdentity() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want model.Provider
		ok   bool
	}{
		{"google", model.ProviderGoogle, true},
		{"GOOGLE", model.ProviderGoogle, true},
		{"Kakao", model.ProviderKakao, true},
		{"naver", model.ProviderNaver, true},
		{"apple", model.ProviderApple, true},
		{"github", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := model.ParseProvider(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseProvider(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
