/*
Package filesystem wraps the file operations terra performs on photo
directories: stat, open and the exclusive copy used by the library ingestor.

Photo libraries often live on NFS or SMB mounts. Stat and open retry ESTALE
(stale file handle) errors with exponential backoff; every other error is
returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults: 3 retries, 50ms initial backoff, 500ms cap.

CopyFile creates its destination with O_EXCL and never overwrites:

	err := filesystem.CopyFile(src, dst, cfg)
	if errors.Is(err, fs.ErrExist) {
	    // pick another name
	}

Each step is reported as an Event to an optional Observer, labelled by the volume a
VolumeResolver assigns to the path ("library", "data" or "other").
*/
package filesystem
