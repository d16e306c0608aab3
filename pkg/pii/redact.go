package pii

import (
	"context"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// Redactor wires Detector (find spans) to Vault (tokenize + store) to
// produce the `{{token}}`-substituted text and a piiSummary shaped as
// {counts, tokens:[{token,type}], vault:[...]}.
type Redactor struct {
	detector *Detector
	vault    *Vault
}

// NewRedactor composes a Detector and Vault into the ingestion-time
// redaction step.
func NewRedactor(detector *Detector, vault *Vault) *Redactor {
	return &Redactor{detector: detector, vault: vault}
}

// tokenRef is one entry of piiSummary.tokens.
type tokenRef struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// Redact finds every PII span in text, mints a vault token for each,
// splices the tokens into the text in place of the original values, and
// returns both the redacted text and the structured summary persisted
// alongside the document.
func (r *Redactor) Redact(ctx context.Context, tc database.TenantContext, text string, persons []EntitySpan) (string, models.VersionedJSON, error) {
	findings := r.detector.Find(text, persons)
	if len(findings) == 0 {
		return text, models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{
			"counts": map[string]any{},
			"tokens": []tokenRef{},
			"vault":  []string{},
		}}, nil
	}

	counts := make(map[string]int, len(findings))
	tokens := make([]tokenRef, 0, len(findings))
	vaultTokens := make([]string, 0, len(findings))

	var out []byte
	cursor := 0
	for _, f := range findings {
		token, err := r.vault.Tokenize(ctx, tc.TenantID, f.Type, f.Value)
		if err != nil {
			return "", models.VersionedJSON{}, apperr.Wrap(apperr.KindFatal, "tokenize pii finding", err)
		}
		out = append(out, text[cursor:f.Start]...)
		out = append(out, '{', '{')
		out = append(out, token...)
		out = append(out, '}', '}')
		cursor = f.End

		counts[string(f.Type)]++
		tokens = append(tokens, tokenRef{Token: token, Type: string(f.Type)})
		vaultTokens = append(vaultTokens, token)
	}
	out = append(out, text[cursor:]...)

	countsAny := make(map[string]any, len(counts))
	for k, v := range counts {
		countsAny[k] = v
	}

	summary := models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{
		"counts": countsAny,
		"tokens": tokens,
		"vault":  vaultTokens,
	}}
	return string(out), summary, nil
}
