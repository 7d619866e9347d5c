/*

Package spafall serves the static file bundle of a "Single Page Application"
(SPA) with a fallback rule that enables client-side routing: requests that
neither name an existing file nor look like a static asset (judged by file
extension) are answered with the contents of the SPA's index document instead
of a "404 not found".

The Handler type implements http.Handler. It fetches the SPA bundle from any
resource provider implementing the fs.FS interface, so the document root can
be a directory on the OS file system (os.DirFS) just as well as a bundle
embedded right into the Go binary (embed.FS).

The extension rule is what sets this handler apart from plain
exists-or-index serving: a request for, say, "app.21ab0f.js" that cannot be
found is answered with a "404" for exactly that path, never with the index
document, because ".js" marks it as a static asset that simply is missing.
Client-side route paths, in contrast, carry no asset extension and thus fall
back to the index document.

*/
package spafall
