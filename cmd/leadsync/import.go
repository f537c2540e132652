package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/example/leadsync/internal/domain"
	"github.com/example/leadsync/internal/repository"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk-import leads from a JSON-lines file",
	Long: `Reads one lead per line as JSON and imports the whole batch.
The batch goes to the remote bulk endpoint in chunks, bisecting on
oversized-payload rejections; if the remote is unreachable the batch is
persisted locally with case-insensitive tracking dedup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leads, err := readLeads(args[0])
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			return errors.New("no leads in input")
		}
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		d.track(cmd)

		created, err := d.leads.AddMany(cmd.Context(), leads)
		var bulkErr *repository.BulkError
		if errors.As(err, &bulkErr) {
			fmt.Printf("imported %d leads, %d failed\n", bulkErr.Created, bulkErr.Failed)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("imported %d leads\n", len(created))
		return nil
	},
}

func readLeads(path string) ([]domain.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var leads []domain.Lead
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var l domain.Lead
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		leads = append(leads, l)
	}
	return leads, sc.Err()
}
