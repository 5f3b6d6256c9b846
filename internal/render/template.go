package render

const digestHTMLTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Subject}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Apple SD Gothic Neo", "Malgun Gothic", sans-serif;
      color: #111827;
      line-height: 1.6;
    }

    .container {
      max-width: 680px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #1e3a8a 0%, #312e81 100%);
      color: #ffffff;
    }

    .header h1 {
      margin: 0;
      font-size: 20px;
    }

    .date {
      font-size: 13px;
      opacity: 0.85;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    .briefing {
      background: #f9fafb;
      border-left: 3px solid #1e3a8a;
      padding: 12px 16px;
      font-size: 14px;
      border-radius: 0 4px 4px 0;
    }

    .item {
      padding: 14px 0;
      border-bottom: 1px solid #f3f4f6;
    }

    .item img {
      max-width: 100%;
      border-radius: 6px;
      margin-bottom: 8px;
    }

    .item-title {
      font-size: 16px;
      font-weight: 600;
    }

    .item-meta {
      font-size: 12px;
      color: #6b7280;
    }

    .item-summary {
      font-size: 14px;
      color: #374151;
    }

    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
    }

    a {
      color: #0b3d91;
      text-decoration: none;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>오늘의 AI/주식/머신러닝 뉴스</h1>
      <div class="date">{{.DateLabel}}</div>
    </div>

    {{if .Narrative}}
    <div class="section">
      <div class="section-title">오늘의 브리핑</div>
      <div class="briefing">{{range lines .Narrative}}{{.}}<br/>{{end}}</div>
    </div>
    {{end}}

    <div class="section">
      <div class="section-title">뉴스 {{len .Items}}건</div>
      {{range .Items}}
      <div class="item">
        {{if .ImageURL}}<img src="{{.ImageURL}}" alt="" />{{end}}
        <div class="item-title"><a href="{{.Link}}">{{.Title}}</a></div>
        <div class="item-meta">{{.Source}}{{if .Keyword}} · {{.Keyword}}{{end}}</div>
        <div class="item-summary">{{.Summary}}</div>
      </div>
      {{end}}
    </div>

    <div class="footer">{{.DateLabel}} 자동 발송된 뉴스 다이제스트입니다.</div>
  </div>
</body>
</html>
`
