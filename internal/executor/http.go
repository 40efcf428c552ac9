package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/types"
)

var execLogger = logger.GetForComponent("executor")

// HTTPExecutor submits plan steps one at a time to a transaction-signing
// sidecar. The sidecar owns the keys; this process never sees them.
type HTTPExecutor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPExecutor(baseURL string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type stepResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"tx_hash"`
	Error   string `json:"error"`
}

func (e *HTTPExecutor) Execute(plan types.ReallocationPlan) ([]types.StepReceipt, bool, error) {
	receipts := make([]types.StepReceipt, 0, len(plan.Steps))

	for i, step := range plan.Steps {
		receipt, err := e.executeStep(plan.AccountID, step)
		receipts = append(receipts, receipt)

		if err != nil || !receipt.Success {
			execLogger.Error().
				Err(err).
				Str("account", string(plan.AccountID)).
				Int("stepIndex", i).
				Str("stepType", string(step.Type)).
				Msg("Plan execution aborted on failed step")
			if err == nil {
				err = fmt.Errorf("%w: %s", ErrStepFailed, receipt.Error)
			}
			return receipts, false, err
		}

		execLogger.Info().
			Str("account", string(plan.AccountID)).
			Int("stepIndex", i).
			Str("stepType", string(step.Type)).
			Str("txHash", receipt.TxHash).
			Msg("Plan step executed")
	}

	return receipts, true, nil
}

func (e *HTTPExecutor) executeStep(account types.AccountID, step types.PlanStep) (types.StepReceipt, error) {
	receipt := types.StepReceipt{Step: step, Timestamp: time.Now().UTC()}

	payload, err := json.Marshal(map[string]interface{}{
		"account": account,
		"step":    step,
	})
	if err != nil {
		receipt.Error = err.Error()
		return receipt, fmt.Errorf("failed to marshal step: %w", err)
	}

	resp, err := e.client.Post(e.baseURL+"/v1/execute", "application/json", bytes.NewReader(payload))
	if err != nil {
		receipt.Error = err.Error()
		return receipt, fmt.Errorf("executor request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		receipt.Error = err.Error()
		return receipt, fmt.Errorf("failed to read executor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		receipt.Error = fmt.Sprintf("executor returned status %d", resp.StatusCode)
		return receipt, fmt.Errorf("%w: status %d: %s", ErrStepFailed, resp.StatusCode, string(body))
	}

	var parsed stepResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		receipt.Error = err.Error()
		return receipt, fmt.Errorf("failed to parse executor response: %w", err)
	}

	receipt.Success = parsed.Success
	receipt.TxHash = parsed.TxHash
	receipt.Error = parsed.Error
	return receipt, nil
}
