package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/config/file"
	"github.com/vippawar1104/RAG-agent/internal/connectors/filesystem"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

var (
	ingestManifest string
	ingestID       string
	ingestMIMEType string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index documents",
	Long: `Extract, chunk, embed and index documents.

Each file is indexed under its path as given, unless --id is set (single
file only). A YAML manifest lists documents with their own ids and metadata:

  documents:
    - id: handbook
      path: docs/handbook.md
      metadata:
        team: people

Unchanged documents are skipped. One document failing does not stop the
others; the command exits with an error if any failed.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestManifest, "manifest", "m", "", "YAML manifest of documents to ingest")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (single file only)")
	ingestCmd.Flags().StringVar(&ingestMIMEType, "mime-type", "", "content type, overriding detection by extension")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireIngestion(); err != nil {
		return err
	}
	if len(args) == 0 && ingestManifest == "" {
		return errors.New("nothing to ingest: pass files or --manifest")
	}
	if ingestID != "" && (len(args) != 1 || ingestManifest != "") {
		return errors.New("--id needs exactly one file and no manifest")
	}

	raws, err := collectDocuments(args)
	if err != nil {
		return err
	}

	st := stylesFor(cmd.OutOrStdout())
	statuses := ingestionService.IngestBatch(cmd.Context(), raws)

	var failed int
	for _, s := range statuses {
		switch {
		case s.Failed():
			failed++
			cmd.Println(st.Error.Render("failed ") + " " + s.DocumentID + ": " + s.Reason)
		case s.Skipped:
			cmd.Println(st.Muted.Render("skipped") + " " + s.DocumentID + " (unchanged)")
		default:
			cmd.Println(st.Success.Render("indexed") + " " + fmt.Sprintf("%s (%d chunks)", s.DocumentID, s.ChunkCount))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(statuses))
	}
	return nil
}

// collectDocuments reads the files named on the command line and in the
// manifest. Read errors are reported together before anything is ingested.
func collectDocuments(paths []string) ([]domain.RawDocument, error) {
	var (
		raws []domain.RawDocument
		errs []error
	)

	for _, path := range paths {
		id := filepath.ToSlash(path)
		if ingestID != "" {
			id = ingestID
		}
		raw, err := readRawDocument(id, path, ingestMIMEType, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		raws = append(raws, raw)
	}

	if ingestManifest != "" {
		m, err := file.LoadManifest(ingestManifest)
		if err != nil {
			return nil, err
		}
		for _, e := range m.Documents {
			raw, err := readRawDocument(e.ID, e.Path, e.MIMEType, e.Metadata)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			raws = append(raws, raw)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return raws, nil
}

func readRawDocument(id, path, mimeType string, metadata map[string]any) (domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.RawDocument{}, err
	}
	if info.IsDir() {
		return domain.RawDocument{}, fmt.Errorf("%s is a directory; use 'ragent watch' or list its files", path)
	}
	if info.Size() > filesystem.MaxFileSize {
		return domain.RawDocument{}, fmt.Errorf("%s is %d bytes, above the %d byte limit", path, info.Size(), filesystem.MaxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, err
	}
	if mimeType == "" {
		mimeType = filesystem.DetectMIMEType(path)
	}

	meta := map[string]any{
		filesystem.MetaFilename:   filepath.Base(path),
		filesystem.MetaPath:       path,
		filesystem.MetaModifiedAt: info.ModTime().UTC().Format(time.RFC3339),
	}
	for k, v := range metadata {
		meta[k] = v
	}

	return domain.RawDocument{
		ID:       id,
		URI:      path,
		MIMEType: mimeType,
		Content:  content,
		Metadata: meta,
	}, nil
}
