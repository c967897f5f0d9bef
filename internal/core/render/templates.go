package render

// Templates holds the mustache sources for generated pages. Variables in
// double braces are HTML-escaped by mustache; pre-rendered fragments use
// triple braces.
type Templates struct {
	Conversation string
	Index        string
}

// DefaultTemplates returns the built-in page templates
func DefaultTemplates() Templates {
	return Templates{
		Conversation: defaultConversationTemplate,
		Index:        defaultIndexTemplate,
	}
}

const pageStyle = `
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; max-width: 960px; margin: 0 auto; padding: 24px; background: #fafafa; color: #222; line-height: 1.6; }
header { border-bottom: 2px solid #ddd; margin-bottom: 24px; }
header h1 { margin-bottom: 4px; }
.meta { color: #666; font-size: 0.9em; }
.meta span { margin-right: 16px; }
.block { border-radius: 8px; padding: 12px 16px; margin: 16px 0; border-left: 4px solid; }
.block.request { background: #e3f2fd; border-color: #2196f3; }
.block.response { background: #f1f8e9; border-color: #4caf50; }
.label { font-weight: bold; font-size: 0.85em; text-transform: uppercase; letter-spacing: 0.05em; }
.label .time { font-weight: normal; color: #777; margin-left: 8px; text-transform: none; }
pre { background: #263238; color: #eceff1; padding: 12px; border-radius: 6px; overflow-x: auto; }
code { background: rgba(0, 0, 0, 0.06); padding: 1px 4px; border-radius: 3px; }
pre code { background: none; padding: 0; }
table { width: 100%; border-collapse: collapse; background: #fff; }
th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #eee; }
th { background: #f0f0f0; }
.legend span { display: inline-block; padding: 2px 10px; border-radius: 4px; margin-right: 8px; border-left: 4px solid; }
.legend .request { background: #e3f2fd; border-color: #2196f3; }
.legend .response { background: #f1f8e9; border-color: #4caf50; }
.empty { color: #999; font-style: italic; }
.error { background: #ffebee; border-left: 4px solid #e53935; padding: 12px 16px; }
`

const defaultConversationTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{title}}</title>
<style>{{{style}}}</style>
</head>
<body>
<header>
<h1>{{title}}</h1>
<div class="meta">
<span>#{{ordinal}}</span>
<span>ID: {{id}}</span>
<span>Created: {{created}}</span>
<span>Updated: {{updated}}</span>
<span>Messages: {{messageCount}}</span>
</div>
<p><a href="index.html">&larr; All conversations</a></p>
</header>
<main>
{{#blocks}}
<section class="block {{kind}}">
<div class="label">{{label}}{{#hasTime}}<span class="time">{{time}}</span>{{/hasTime}}</div>
<div class="content">{{{html}}}</div>
</section>
{{/blocks}}
{{^hasBlocks}}
<p class="empty">This conversation has no messages.</p>
{{/hasBlocks}}
</main>
<footer class="meta"><p>Generated {{generated}}</p></footer>
</body>
</html>
`

const defaultIndexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Conversations</title>
<style>{{{style}}}</style>
</head>
<body>
<header>
<h1>Conversations</h1>
<div class="meta">
<span>{{totalConversations}} conversations</span>
<span>{{totalMessages}} messages</span>
{{#hasErrors}}<span>{{errors}} errors</span>{{/hasErrors}}
<span>Generated {{generated}}</span>
</div>
<p class="legend"><span class="request">Request: your messages</span><span class="response">Response: assistant replies</span></p>
<p class="meta">Sorted by last update, newest first. Conversations without dates are listed last.</p>
</header>
<main>
<table>
<thead><tr><th>#</th><th>Title</th><th>Date</th><th>Messages</th></tr></thead>
<tbody>
{{#entries}}
<tr><td>{{number}}</td><td>{{#hasFile}}<a href="{{href}}">{{title}}</a>{{/hasFile}}{{^hasFile}}{{title}}{{/hasFile}}</td><td>{{formattedDate}}</td><td>{{messageCount}}</td></tr>
{{/entries}}
</tbody>
</table>
{{^hasEntries}}
<p class="empty">No conversations found.</p>
{{/hasEntries}}
</main>
</body>
</html>
`
