// Package markdown splits front matter from Markdown sources and renders the
// remaining body to HTML with goldmark.
package markdown
