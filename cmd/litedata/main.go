package main

import (
	"context"
	"os"

	"zipmarket/internal/config"
	"zipmarket/internal/domain"
	"zipmarket/internal/infrastructure/storage"
	"zipmarket/pkg/logger"
)

// litedata projects the full columnar dataset down to the handful of
// fields the map needs for its initial paint.
func main() {
	log := logger.New("litedata")
	cfg := config.Load()
	ctx := context.Background()

	store := storage.NewFileStore(cfg.Paths.DataDir, cfg.Output.Compress, nil)

	ds, err := store.ReadPrevious(ctx)
	if err != nil {
		log.Printf("read full dataset: %v", err)
		os.Exit(1)
	}
	if ds == nil {
		log.Printf("no dataset found in %s, run the pipeline first", cfg.Paths.DataDir)
		os.Exit(1)
	}
	if len(ds.Fields) == 0 {
		log.Print("full dataset is not in columnar form, cannot project")
		os.Exit(1)
	}

	lite := ds.Project(domain.LiteFields)
	if err := store.WriteLite(ctx, lite); err != nil {
		log.Printf("write lite dataset: %v", err)
		os.Exit(1)
	}

	fullSize := fileSize(store.DatasetPath())
	liteSize := fileSize(store.LitePath())
	log.Printf("lite dataset generated: %s (%d fields, %d zips)", store.LitePath(), len(lite.Fields), len(lite.Records))
	if fullSize > 0 && liteSize > 0 {
		log.Printf("full: %.1f KB, lite: %.1f KB, reduction: %.1f%%",
			float64(fullSize)/1024, float64(liteSize)/1024,
			(1-float64(liteSize)/float64(fullSize))*100)
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
