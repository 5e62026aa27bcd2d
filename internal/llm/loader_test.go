package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

func TestLoadGuideCriteria_Layouts(t *testing.T) {
	cases := map[string]string{
		"id objects":      `[{"criterio_id":"A1","descrizione_guida":"Quality"},{"criterio_id":"B2","descrizione":"Budget"}]`,
		"single key":      `[{"A1":"Quality"},{"B2":"Budget"}]`,
		"wrapped":         `{"criteri":[{"A1":"Quality"},{"criterio_id":"B2","descrizione_guida":"Budget"}]}`,
		"wrapped any key": `{"whatever":[{"A1":"Quality"},{"B2":"Budget"}]}`,
	}
	want := []entity.GuideCriterion{{ID: "A1", Guide: "Quality"}, {ID: "B2", Guide: "Budget"}}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := LoadGuideCriteria([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadGuideCriteria_NumericCodeAndMissingGuide(t *testing.T) {
	got, err := LoadGuideCriteria([]byte(`[{"criterio_id":12},{"7":3.5}]`))
	require.NoError(t, err)
	assert.Equal(t, []entity.GuideCriterion{{ID: "12", Guide: ""}, {ID: "7", Guide: "3.5"}}, got)
}

func TestLoadGuideCriteria_Errors(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`[]`,
		`"A1"`,
		`{"a":[],"b":[]}`,
		`{"criteri":"A1"}`,
		`[{"a":"1","b":"2"}]`,
		`["A1"]`,
	} {
		_, err := LoadGuideCriteria([]byte(raw))
		assert.ErrorIs(t, err, common.ErrInvalidInput, raw)
	}
}

func TestBuildMatchingPrompts(t *testing.T) {
	system, user := BuildMatchingPrompts([]entity.GuideCriterion{{ID: "A1", Guide: "Quality"}}, "the document")
	assert.Contains(t, system, "risposta_al_criterio_dal_documento")
	assert.True(t, strings.HasPrefix(user, "CRITERIA TO ANSWER:\n[\n  {\n    \"criterio_id\": \"A1\""))
	assert.Contains(t, user, "DOCUMENT TEXT TO ANALYSE:\nthe document\n")
}

func TestBuildExtractionPrompts(t *testing.T) {
	system, user := BuildExtractionPrompts("body")
	assert.Contains(t, system, "JSON")
	assert.True(t, strings.HasSuffix(user, "\n\nbody"))
}
