// Package filesystem opens library files by path with retry logic for NFS
// stale file handles. Errors other than ESTALE are returned unchanged, so
// callers can still classify them with errors.Is against fs.ErrNotExist and
// fs.ErrPermission.
package filesystem
