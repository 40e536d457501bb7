package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)

	for _, status := range []string{"complete", "canceled", "error"} {
		EnumerationsTotal.WithLabelValues(status)
	}
	for _, trigger := range []string{"count", "time", "last"} {
		EnumerationChunksTotal.WithLabelValues(trigger)
	}
	for _, op := range []string{"enumerate", "thumbnail", "photo"} {
		OrientationReadFailures.WithLabelValues(op)
	}

	for _, source := range []string{"embedded", "decode"} {
		ThumbnailRenderDuration.WithLabelValues(source)
		for _, status := range []string{"success", "unavailable", "error"} {
			ThumbnailRendersTotal.WithLabelValues(source, status)
		}
	}

	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "unknown"} {
		for _, decoder := range []string{"imaging", "vips"} {
			ImageDecodeByFormat.WithLabelValues(format, decoder)
		}
	}

	for _, mode := range []string{"passthrough", "reencoded", "error"} {
		PhotoRetrievalsTotal.WithLabelValues(mode)
	}

	for _, op := range []string{"rescan", "remove"} {
		IndexerWatcherEvents.WithLabelValues(op)
	}

	for _, kind := range []string{"image", "video", "move"} {
		for _, status := range []string{"success", "error"} {
			ImportsTotal.WithLabelValues(kind, status)
		}
	}

	for _, op := range []string{"open", "stat"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemOperationDuration.WithLabelValues(op)
	}
}
