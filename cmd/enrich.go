package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

var (
	enrichFile    string
	enrichRowID   string
	enrichTarget  string
	enrichData    []string
	enrichTimeout time.Duration
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich one (rowId, targetField) cell",
	Long: `Reads an enrichment request and prints the result as JSON.

The request is either a JSON document ({"rowId", "existingData",
"targetField", "deadline"?}) from --file / stdin, or assembled from
--row-id, --data, and --target flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readEnrichRequest()
		if err != nil {
			return err
		}

		if enrichTimeout > 0 && req.Deadline == nil {
			deadline := time.Now().Add(enrichTimeout)
			req.Deadline = &deadline
		}

		eng, err := buildEngine(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		result := eng.Executor.Enrich(cmd.Context(), req)
		zap.L().Info("enrichment complete",
			zap.String("row_id", req.RowID),
			zap.String("target", req.TargetField),
			zap.String("state", string(result.State)),
			zap.Int64("duration_ms", result.Diagnostics.DurationMs),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func readEnrichRequest() (model.EnrichRequest, error) {
	var req model.EnrichRequest

	if enrichRowID != "" || len(enrichData) > 0 {
		req.RowID = enrichRowID
		req.TargetField = enrichTarget
		req.ExistingData = map[string]string{}
		for _, kv := range enrichData {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return req, eris.Errorf("cmd: malformed --data %q, want key=value", kv)
			}
			req.ExistingData[k] = v
		}
		return req, nil
	}

	var raw []byte
	var err error
	if enrichFile == "" || enrichFile == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(enrichFile)
	}
	if err != nil {
		return req, eris.Wrap(err, "cmd: read enrich request")
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, eris.Wrap(err, "cmd: parse enrich request")
	}
	return req, nil
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichFile, "file", "f", "", "request JSON file (default stdin)")
	enrichCmd.Flags().StringVar(&enrichRowID, "row-id", "", "row id (flag-based request)")
	enrichCmd.Flags().StringVar(&enrichTarget, "target", "", "target field to fill")
	enrichCmd.Flags().StringArrayVar(&enrichData, "data", nil, "existing row data as key=value (repeatable)")
	enrichCmd.Flags().DurationVar(&enrichTimeout, "timeout", 0, "overall enrichment deadline")
	rootCmd.AddCommand(enrichCmd)
}
