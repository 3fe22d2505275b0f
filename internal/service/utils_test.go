package service

import "testing"

func TestDecodeJSONObject(t *testing.T) {
	var v struct {
		Template string `json:"template"`
	}
	for _, content := range []string{
		`{"template": "total_spent"}`,
		"```json\n{\"template\": \"total_spent\"}\n```",
		`Claro! Aqui está: {"template": "total_spent"} Espero ter ajudado.`,
	} {
		v.Template = ""
		if err := decodeJSONObject(content, &v); err != nil {
			t.Errorf("decodeJSONObject(%q) failed: %v", content, err)
			continue
		}
		if v.Template != "total_spent" {
			t.Errorf("decodeJSONObject(%q) = %q", content, v.Template)
		}
	}

	for _, content := range []string{"", "sem json", "} {", `{"template": }`} {
		if err := decodeJSONObject(content, &v); err == nil {
			t.Errorf("decodeJSONObject(%q) should fail", content)
		}
	}
}

func TestSanitizeAndTruncate(t *testing.T) {
	if got := sanitizeUTF8("Pão\xff de queijo"); got != "Pão de queijo" {
		t.Errorf("sanitizeUTF8: got %q", got)
	}
	if got := truncateRunes("Açaí grande", 4); got != "Açaí" {
		t.Errorf("truncateRunes: got %q", got)
	}
	if got := truncateRunes("curto", 0); got != "curto" {
		t.Errorf("truncateRunes with no limit: got %q", got)
	}
}
