package digest

// digestHTML is the inline email template. Email clients want everything
// styled inline, so no external assets.
const digestHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="digest-version" content="{{.Version}}">
</head>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
<div style="max-width:600px;margin:0 auto;padding:24px;">
  <h1 style="font-size:22px;color:#1a1a2e;">Your content ideas for {{.Date}}</h1>

  {{if .Insights}}
  <div style="background:#ffffff;border-radius:8px;padding:16px;margin-bottom:16px;">
    <h2 style="font-size:16px;color:#1a1a2e;margin-top:0;">What's working on your channel</h2>
    <ul style="padding-left:20px;color:#3d3d4e;">
      {{range .Insights}}<li style="margin-bottom:6px;">{{.}}</li>{{end}}
    </ul>
    {{if .UploadAdvice.Slot}}
    <p style="color:#3d3d4e;margin-bottom:0;">
      Best publish window: <strong>{{.UploadAdvice.Slot}}</strong> ({{.UploadAdvice.SlotWindow}}),
      strongest weekday: <strong>{{.UploadAdvice.BestWeekday}}</strong>.
    </p>
    {{end}}
  </div>
  {{end}}

  {{range .Ideas}}
  <div style="background:#ffffff;border-radius:8px;padding:16px;margin-bottom:12px;">
    <h2 style="font-size:17px;color:#1a1a2e;margin:0 0 4px 0;">#{{.Rank}} {{.Title}}</h2>
    <p style="font-size:13px;color:#6b6b7b;margin:0 0 10px 0;">
      Confidence {{pct .Confidence}} &middot; Predicted engagement {{pct .PredictedEngagement}}
    </p>
    <ul style="padding-left:20px;color:#3d3d4e;font-size:14px;">
      {{if .Reasoning.CommentDemand}}<li>{{.Reasoning.CommentDemand}}</li>{{end}}
      {{if .Reasoning.PastPerformance}}<li>{{.Reasoning.PastPerformance}}</li>{{end}}
      {{if .Reasoning.AudienceFit}}<li>{{.Reasoning.AudienceFit}}</li>{{end}}
    </ul>
    <p style="font-size:13px;color:#6b6b7b;margin-bottom:0;">
      Suggested: {{.SuggestedStructure.Format}}{{if .SuggestedStructure.Length}}, {{.SuggestedStructure.Length}}{{end}}{{if .SuggestedStructure.Tone}}, {{.SuggestedStructure.Tone}} tone{{end}}{{if .SuggestedStructure.Hook}} &mdash; open with: {{.SuggestedStructure.Hook}}{{end}}
    </p>
  </div>
  {{end}}

  <p style="font-size:12px;color:#9a9aa8;text-align:center;margin-top:24px;">
    You are receiving this because scheduled idea digests are enabled for your account.<br>
    <a href="{{.UnsubscribeURL}}" style="color:#9a9aa8;">Unsubscribe</a>
  </p>
</div>
</body>
</html>`
