// Package templates 内嵌站点页面模板与样式表
package templates

import "embed"

//go:embed index.html.tmpl chapter.html.tmpl nav.html.tmpl styles.css
var FS embed.FS
