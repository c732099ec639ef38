package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/f2lnk/f2lnk-go/internal/tweetapi"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// Tweet resolves tweetURL through client and downloads every media item
// it reports into destDir, one file per item, preserving the order the
// proxy API returned them in.
func Tweet(ctx context.Context, client tweetapi.Client, tweetURL, destDir string) ([]string, error) {
	items, err := client.Resolve(ctx, tweetURL)
	if err != nil {
		return nil, xerrors.Wrap(err).Category(xerrors.CategoryIntegration).Component("fetch").
			Context("tweet_url", tweetURL).Build()
	}
	if len(items) == 0 {
		return nil, xerrors.Newf("tweet proxy returned no media for %s", tweetURL).
			Category(xerrors.CategoryFetch).Component("fetch").Build()
	}

	var paths []string
	for i, item := range items {
		name := fmt.Sprintf("tweet_%d%s", i, extensionFor(item.Kind))
		path, err := downloadDirect(ctx, item.URL, tweetURL, destDir)
		if err != nil {
			return nil, xerrors.Wrap(err).Category(xerrors.CategoryFetch).Component("fetch").
				Context("tweet_url", tweetURL).Context("item_index", i).Build()
		}
		renamed := filepath.Join(destDir, name)
		if renamed != path {
			if err := renameTweetFile(path, renamed); err != nil {
				return nil, err
			}
			path = renamed
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func renameTweetFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("fetch").FileContext(src, 0).Build()
	}
	return nil
}

func extensionFor(kind tweetapi.MediaKind) string {
	switch kind {
	case tweetapi.MediaGIF:
		return ".gif"
	case tweetapi.MediaPhoto:
		return ".jpg"
	default:
		return ".mp4"
	}
}
