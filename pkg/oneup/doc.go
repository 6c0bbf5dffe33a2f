// Package oneup resolves the next calendar version of a project and writes it into the
// project's manifests.
//
// A run parses the format, locates the targets, reads the package identity from the
// primary target, asks the matching registry which versions exist, resolves the next
// version for today and patches every target. Nothing is written when the format, the
// targets or the registry fail.
//
// Usage Example:
//
//	meta, err := oneup.Run(ctx, oneup.Options{
//	    Dir:    ".",
//	    Format: "YY.MM.MICRO",
//	    Logger: logging.NewDefaultCLILogger(false),
//	})
//	var patchErr *oneup.PatchError
//	if err != nil && !errors.As(err, &patchErr) {
//	    log.Fatal(err)
//	}
//	fmt.Println(meta.NewVersion)
package oneup
