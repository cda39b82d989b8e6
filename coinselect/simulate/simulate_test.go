package simulate

import (
	"testing"

	"github.com/decred/dcrd/wire"
	"github.com/stretchr/testify/require"

	"github.com/decred/walletkernel/coinselect/policy"
	"github.com/decred/walletkernel/types"
)

func depositEvent(index uint32, amount types.Amount) Event {
	return Event{
		Kind: Deposit,
		Deposit: policy.Coin{
			OutPoint: wire.OutPoint{Index: index},
			Output:   types.Output{Amount: amount},
		},
	}
}

func payEvent(amount int64) Event {
	return Event{Kind: Pay, Outputs: []*wire.TxOut{{Value: amount}}}
}

func TestRunTracksSuccessAndFailure(t *testing.T) {
	events := []Event{
		depositEvent(0, 10),
		payEvent(5),
		Event{Kind: NextSlot},
		payEvent(1000),
	}

	res := Run(events, policy.LargestFirst, nil)
	require.Len(t, res.Outcomes, 2)
	require.NoError(t, res.Outcomes[0].Err)
	require.Error(t, res.Outcomes[1].Err)
	require.Equal(t, 1, res.FailureCount())
}

func TestRunSpendsDepositedCoinsAcrossPayEvents(t *testing.T) {
	events := []Event{
		depositEvent(0, 10),
		depositEvent(1, 10),
		payEvent(10),
		payEvent(10),
		payEvent(10),
	}

	res := Run(events, policy.LargestFirst, nil)
	require.Equal(t, 1, res.FailureCount())
}

func TestHistogramCountsSuccessfulInputsChosen(t *testing.T) {
	events := []Event{
		depositEvent(0, 5),
		depositEvent(1, 5),
		payEvent(8),
	}
	res := Run(events, policy.LargestFirst, nil)
	hist := res.Histogram()
	require.Equal(t, 1, hist[2])
}
