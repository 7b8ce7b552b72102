package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/storm-tools/storm/pkg/types"
)

// Classify turns one raw call result into an outcome. The decision order
// short-circuits: transport errors first, then HTTP status, then body shape,
// then the protocol error member, then the optional result check. A malformed
// body must never be reported as a protocol error, and a protocol error must
// never be reported as a transport failure; the failure log distinguishes the
// classes.
func Classify(latency time.Duration, httpStatus int, body []byte, transportErr error, check ResultCheck) types.Outcome {
	if transportErr != nil {
		return types.Outcome{
			Latency: latency,
			Class:   types.ErrClassTransport,
			Err:     transportErr,
		}
	}

	if httpStatus < http.StatusOK || httpStatus >= http.StatusMultipleChoices {
		return types.Outcome{
			Latency: latency,
			Class:   types.ErrClassHTTP,
			Err:     &HTTPStatusError{StatusCode: httpStatus, Body: string(body)},
		}
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return types.Outcome{
			Latency: latency,
			Class:   types.ErrClassMalformed,
			Err:     &MalformedBodyError{Body: string(body)},
		}
	}

	if resp.Error != nil {
		return types.Outcome{
			Latency: latency,
			Class:   types.ErrClassProtocol,
			Err:     resp.Error,
		}
	}

	if check != nil {
		if err := check(resp.Result); err != nil {
			return types.Outcome{
				Latency: latency,
				Class:   types.ErrClassProtocol,
				Err:     err,
			}
		}
	}

	return types.Outcome{Success: true, Latency: latency}
}
