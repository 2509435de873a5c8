package fetch

import (
	"fmt"
	"io"
	"os"

	"github.com/cirruslabs/mediacache/internal/command/common"
	"github.com/cirruslabs/mediacache/internal/media"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string
var kind string
var token string
var outputPath string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Retrieve a single media URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}

	cmd.Flags().StringVarP(&configPath, "file", "f", "",
		"configuration file path (e.g. /etc/mediacache.yml)")
	cmd.Flags().StringVar(&kind, "kind", "document",
		"expected media kind (image, audio, video or document)")
	cmd.Flags().StringVar(&token, "token", "",
		"credential to use for the authenticated media (overrides backend.token)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"file to write the media to (defaults to standard output)")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	mediaKind, err := media.ParseKind(kind)
	if err != nil {
		return err
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}

	service, err := common.NewService(config, token, zap.S())
	if err != nil {
		return err
	}

	result, err := service.Retrieve(cmd.Context(), args[0], mediaKind)
	if err != nil {
		return fmt.Errorf("failed to retrieve %s: %w", args[0], err)
	}

	if result.Handle == nil {
		zap.S().Infof("%s can be used as-is, nothing to retrieve", result.URL)

		return nil
	}

	reader, err := result.Handle.Open()
	if err != nil {
		return err
	}

	if outputPath == "" {
		if _, err := io.Copy(cmd.OutOrStdout(), reader); err != nil {
			return fmt.Errorf("failed to write media: %w", err)
		}
	} else if err := writeFile(outputPath, reader); err != nil {
		return err
	}

	zap.S().Infof("retrieved %s of %s", humanize.Bytes(uint64(result.Handle.Size())), result.ContentType)

	return nil
}

func writeFile(path string, reader io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	return copyAndClose(file, path, reader)
}

// copyAndClose reports a failure to close the output, since that's
// where buffered writes may fail.
func copyAndClose(output io.WriteCloser, path string, reader io.Reader) error {
	if _, err := io.Copy(output, reader); err != nil {
		_ = output.Close()

		return fmt.Errorf("failed to write media to %s: %w", path, err)
	}

	if err := output.Close(); err != nil {
		return fmt.Errorf("failed to close output file %s: %w", path, err)
	}

	return nil
}
