package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/sportscache/urn"
)

func TestReconcileReferences(t *testing.T) {
	competitor := urn.MustParse("sr:competitor:44")

	t.Run("incoming overwrites existing", func(t *testing.T) {
		merged := ReconcileReferences(competitor,
			map[string]string{"internal": "2", "provider_x": "px-9"},
			map[string]string{"internal": "1"})

		assert.Equal(t, "2", merged["internal"])
		assert.Equal(t, "px-9", merged["provider_x"])
	})

	t.Run("existing-only keys retained", func(t *testing.T) {
		merged := ReconcileReferences(competitor,
			map[string]string{"provider_x": "px-9"},
			map[string]string{"internal": "1"})

		assert.Equal(t, "1", merged["internal"])
		assert.Equal(t, "px-9", merged["provider_x"])
	})

	t.Run("empty incoming keeps existing", func(t *testing.T) {
		merged := ReconcileReferences(competitor, nil, map[string]string{"internal": "1"})
		assert.Equal(t, map[string]string{"internal": "1"}, merged)
	})

	t.Run("non-synthetic entity gets no synthesized key", func(t *testing.T) {
		merged := ReconcileReferences(competitor, nil, nil)
		assert.Empty(t, merged)
	})
}

func TestReconcileReferences_SimpleTeamSynthesis(t *testing.T) {
	simple := urn.MustParse("sr:simple_team:9999")

	t.Run("empty bundle synthesizes internal key", func(t *testing.T) {
		merged := ReconcileReferences(simple, nil, nil)
		assert.Equal(t, map[string]string{"internal": "9999"}, merged)
	})

	t.Run("existing internal key not overwritten", func(t *testing.T) {
		merged := ReconcileReferences(simple,
			map[string]string{"internal": "custom"}, nil)
		assert.Equal(t, "custom", merged["internal"])
	})

	t.Run("other keys do not suppress synthesis", func(t *testing.T) {
		merged := ReconcileReferences(simple,
			map[string]string{"provider_x": "px-1"}, nil)
		assert.Equal(t, "9999", merged["internal"])
		assert.Equal(t, "px-1", merged["provider_x"])
	})
}
