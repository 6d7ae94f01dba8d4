// Package views renders the gallery page from pug templates.
package views
