package trainer

import (
	"os"

	"github.com/pkg/errors"

	"github.com/objtrain/objtrain/net/feedforward"
)

// Resume loads the checkpoint written by an earlier Fit. A missing file is
// not an error, there is nothing to resume from.
func Resume(net *feedforward.FeedforwardNetwork, checkpoint string) (bool, error) {
	if checkpoint == "" {
		return false, nil
	}
	if _, err := os.Stat(checkpoint); os.IsNotExist(err) {
		return false, nil
	}
	if err := net.ReadCompressedWeightsFromFile(checkpoint); err != nil {
		return false, errors.Wrapf(err, "resume from %s", checkpoint)
	}
	return true, nil
}
