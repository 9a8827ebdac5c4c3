package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// newFeedbackCmd submits one feedback item.
func newFeedbackCmd() *cobra.Command {
	var (
		sourceType string
		sourceID   string
		rating     float64
		metric     string
		value      float64
		taskType   string
		complexity string
	)

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit a feedback item",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := feedback.Raw{
				Source: feedback.Source{
					Type: feedback.SourceType(sourceType),
					ID:   sourceID,
				},
				Timestamp: time.Now(),
			}

			ctx := map[string]string{}
			if taskType != "" {
				ctx[feedback.ContextKeyTaskType] = taskType
			}
			if complexity != "" {
				ctx[feedback.ContextKeyComplexity] = complexity
			}

			switch {
			case metric != "":
				raw.Content = feedback.Content{
					Kind:    feedback.ContentMetric,
					Metric:  metric,
					Value:   value,
					Context: ctx,
				}
			default:
				raw.Content = feedback.Content{
					Kind:    feedback.ContentRating,
					Rating:  rating,
					Context: ctx,
				}
			}

			return postJSON("/api/v1/feedback", raw)
		},
	}

	cmd.Flags().StringVar(&sourceType, "source", "user", "source type (user, system, observer)")
	cmd.Flags().StringVar(&sourceID, "source-id", "adaptctl", "source identifier")
	cmd.Flags().Float64Var(&rating, "rating", 0, "rating value (1-5)")
	cmd.Flags().StringVar(&metric, "metric", "", "metric name (submits a metric instead of a rating)")
	cmd.Flags().Float64Var(&value, "value", 0, "metric value")
	cmd.Flags().StringVar(&taskType, "task-type", "", "task_type context label")
	cmd.Flags().StringVar(&complexity, "complexity", "", "complexity context label (low, medium, high)")

	return cmd
}

// newCycleCmd triggers one learning cycle.
func newCycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run one learning cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/cycle", nil)
		},
	}
}

// newStateCmd prints the learning state.
func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the controller's learning state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/state")
		},
	}
}

// newAdaptationCmd fetches one adaptation by ID.
func newAdaptationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adaptation <id>",
		Short: "Fetch an adaptation's audit record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/adaptations/" + args[0])
		},
	}
}

func postJSON(path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	resp, err := http.Post(serverAddr+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func getJSON(path string) error {
	resp, err := http.Get(serverAddr + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
