package ton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountTON(t *testing.T) {
	tx := Transaction{AmountNano: 570_000_000}
	assert.InDelta(t, 0.57, tx.AmountTON(), 1e-12)

	tx = Transaction{AmountNano: 1_000_000_000}
	assert.Equal(t, 1.0, tx.AmountTON())

	tx = Transaction{AmountNano: 0}
	assert.Equal(t, 0.0, tx.AmountTON())
}
