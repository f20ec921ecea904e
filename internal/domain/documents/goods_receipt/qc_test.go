package goods_receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgate/internal/core/apperror"
	"stockgate/internal/core/types"
)

func q(units int64) types.Quantity { return types.NewQuantity(units) }

func TestClassify(t *testing.T) {
	tests := []struct {
		name                       string
		received, passed, rejected types.Quantity
		wantItem                   ItemStatus
		wantQC                     QCStatus
	}{
		{"all passed", q(100), q(100), 0, ItemReceived, QCPassed},
		{"split", q(50), q(30), q(20), ItemPartial, QCPartial},
		{"all rejected", q(40), 0, q(40), ItemRejected, QCRejected},
		{"nothing received", 0, 0, 0, ItemRejected, QCPassed},
		{"within tolerance", q(10), q(10) - 1, 0, ItemReceived, QCPassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, qc, err := Classify(tt.received, tt.passed, tt.rejected, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.wantItem, item)
			assert.Equal(t, tt.wantQC, qc)
		})
	}
}

func TestClassify_QuantityMismatch(t *testing.T) {
	_, _, err := Classify(q(50), q(30), q(10), nil)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeQuantityMismatch))

	_, _, err = Classify(q(10), q(10)-2, 0, nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeQuantityMismatch), "two ten-thousandths is outside tolerance")
}

func TestClassify_NegativeQuantities(t *testing.T) {
	_, _, err := Classify(q(10), q(12), q(-2), nil)

	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestClassify_Override(t *testing.T) {
	override := QCRejected

	item, qc, err := Classify(q(50), q(50), 0, &override)

	require.NoError(t, err)
	assert.Equal(t, ItemReceived, item)
	assert.Equal(t, QCRejected, qc)

	unknown := QCStatus("MAYBE")
	_, _, err = Classify(q(1), q(1), 0, &unknown)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestStatus_Accepts(t *testing.T) {
	assert.True(t, StatusDraft.Accepts(CommandApprove))
	assert.True(t, StatusPassed.Accepts(CommandApprove))
	assert.False(t, StatusArrived.Accepts(CommandApprove))
	assert.False(t, StatusCompleted.Accepts(CommandApprove))
	assert.False(t, StatusCancelled.Accepts(CommandUpdateQC))
	assert.True(t, StatusCompleted.Accepts(CommandUpdateQC))
	assert.False(t, StatusArrived.Accepts(CommandDelete))
}
