// Package files enumerates and fetches the source files of the loss pipeline.
//
// A Store lists the files under a directory and fetches their bytes. Four
// backends are provided:
//
//	LocalStore   directories on disk
//	GitHubStore  a repository read through the contents API with a token
//	DriveStore   Google Drive folders (directory = folder id)
//	GCSStore     a Cloud Storage bucket (directory = object prefix)
//
// Any listing or fetch failure is reported as a SOURCE_UNAVAILABLE AppError,
// which aborts the pipeline run.
//
// Example usage:
//
//	store, err := files.NewStore(ctx, cfg.Sources)
//	lossFiles, err := files.FindByExtension(ctx, store, cfg.Sources.LossDir, files.ExtCSV)
//	version := files.Fingerprint(lossFiles)
//
// Manager writes exports produced by the report command.
package files
