package web

import (
	"html/template"
	"io"
)

type renderable interface {
	Execute(w io.Writer, data any) error
}

var pageFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var browseTemplate = template.Must(template.New("browse").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>anistream</title>
<style>
:root { --bg: #f8fafc; --surface: #fff; --text: #0f172a; --muted: #64748b; --accent: #6366f1; }
html[data-theme="dark"] { --bg: #0f172a; --surface: #1e293b; --text: #e2e8f0; --muted: #94a3b8; }
* { margin: 0; padding: 0; box-sizing: border-box; }
body { background: var(--bg); color: var(--text); font-family: -apple-system, "Segoe UI", Roboto, sans-serif; }
.container { max-width: 1100px; margin: 0 auto; padding: 1.5rem 1rem; }
header { display: flex; align-items: center; gap: 1rem; margin-bottom: 1.5rem; flex-wrap: wrap; }
header h1 { font-size: 1.4rem; color: var(--accent); }
header form.search { flex: 1; display: flex; gap: 0.5rem; min-width: 240px; }
header input, header select { padding: 0.45rem 0.6rem; border-radius: 6px; border: 1px solid var(--muted); background: var(--surface); color: var(--text); font-size: 0.9rem; }
header input { flex: 1; }
.theme-btn { background: none; border: 1px solid var(--muted); color: var(--text); border-radius: 6px; padding: 0.45rem 0.7rem; cursor: pointer; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 1rem; }
.card { background: var(--surface); border-radius: 8px; overflow: hidden; text-decoration: none; color: inherit; display: block; }
.card img { width: 100%; aspect-ratio: 2/3; object-fit: cover; background: #000; }
.card .body { padding: 0.6rem 0.7rem; }
.card .show { font-size: 0.75rem; color: var(--muted); }
.card .title { font-size: 0.9rem; font-weight: 600; margin-top: 0.15rem; }
.card .resume { font-size: 0.72rem; color: var(--muted); margin-top: 0.3rem; }
.bar { height: 3px; background: var(--muted); border-radius: 2px; margin-top: 0.3rem; overflow: hidden; }
.bar span { display: block; height: 100%; background: var(--accent); }
.empty { color: var(--muted); padding: 3rem 0; text-align: center; }
</style>
</head>
<body>
<div class="container">
<header>
<h1>anistream</h1>
<form class="search" method="get" action="/">
<input type="search" name="q" placeholder="Search titles…" value="{{.Query}}">
<select name="genre" onchange="this.form.submit()">
<option value="">all genres</option>
{{range .Genres}}<option value="{{.}}"{{if eq . $.Genre}} selected{{end}}>{{.}}</option>
{{end}}</select>
</form>
<form method="post" action="/theme">
<input type="hidden" name="theme" value="{{if eq .Theme "dark"}}light{{else}}dark{{end}}">
<button class="theme-btn" type="submit">{{if eq .Theme "dark"}}light{{else}}dark{{end}}</button>
</form>
</header>
{{if .Items}}
<div class="grid">
{{range .Items}}
<a class="card" href="{{.WatchURL}}">
{{if .Episode.PosterURL}}<img src="{{.Episode.PosterURL}}" alt="" loading="lazy">{{end}}
<div class="body">
<div class="show">{{.Episode.Show}}</div>
<div class="title">{{.Episode.DisplayTitle}}</div>
{{if .ResumePos}}<div class="resume">watched {{.Ago}}</div>
<div class="bar"><span style="width: {{.Percent}}%"></span></div>{{end}}
</div>
</a>
{{end}}
</div>
{{else}}
<p class="empty">Nothing matched{{if .Query}} “{{.Query}}”{{end}}.</p>
{{end}}
</div>
</body>
</html>
`))

var watchTemplate = template.Must(template.New("watch").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Episode.DisplayTitle}} — anistream</title>
<style>
:root { --bg: #f8fafc; --surface: #fff; --text: #0f172a; --muted: #64748b; --accent: #6366f1; }
html[data-theme="dark"] { --bg: #0f172a; --surface: #1e293b; --text: #e2e8f0; --muted: #94a3b8; }
* { margin: 0; padding: 0; box-sizing: border-box; }
body { background: var(--bg); color: var(--text); font-family: -apple-system, "Segoe UI", Roboto, sans-serif; }
.container { max-width: 960px; margin: 0 auto; padding: 1.5rem 1rem; }
.player { position: relative; }
video { width: 100%; border-radius: 8px; background: #000; }
h1 { margin-top: 1rem; font-size: 1.3rem; }
.show { color: var(--muted); font-size: 0.85rem; margin-top: 0.25rem; }
.synopsis { margin-top: 0.75rem; color: var(--muted); font-size: 0.9rem; line-height: 1.5; }
.nav { margin-top: 1rem; display: flex; gap: 0.75rem; align-items: center; flex-wrap: wrap; }
.nav a, .nav select { background: var(--surface); color: var(--text); border: 1px solid var(--muted); border-radius: 6px; padding: 0.45rem 0.9rem; text-decoration: none; font-size: 0.875rem; }
#quality { display: none; }
.overlay { position: absolute; right: 1rem; bottom: 4rem; background: rgba(15, 23, 42, 0.92); color: #e2e8f0; border-radius: 8px; padding: 0.9rem 1.1rem; display: none; font-size: 0.9rem; }
.overlay .actions { margin-top: 0.6rem; display: flex; gap: 0.5rem; }
.overlay button { border: none; border-radius: 6px; padding: 0.4rem 0.8rem; cursor: pointer; font-size: 0.8rem; }
.overlay .go { background: var(--accent); color: #fff; }
.overlay .stay { background: transparent; color: #cbd5e1; border: 1px solid #475569; }
</style>
<script src="https://cdn.jsdelivr.net/npm/hls.js@1"></script>
</head>
<body>
<div class="container">
<div class="player">
<video id="video" controls playsinline{{if .Episode.PosterURL}} poster="{{.Episode.PosterURL}}"{{end}}>
{{range $i, $t := .Episode.Subtitles}}<track kind="subtitles" label="{{$t.Label}}" srclang="{{$t.Lang}}" src="{{$t.URL}}"{{if eq $i 0}} default{{end}}>
{{end}}</video>
<div class="overlay" id="next-overlay">
<div>Up next: <strong>{{.NextTitle}}</strong> in <span id="next-count">{{.Countdown}}</span>s</div>
<div class="actions">
<button class="go" id="next-now">Watch now</button>
<button class="stay" id="next-cancel">Cancel</button>
</div>
</div>
<select id="quality"></select>
</div>
<h1>{{.Episode.DisplayTitle}}</h1>
<div class="show">{{.Episode.Show}}</div>
{{if .Episode.Synopsis}}<p class="synopsis">{{.Episode.Synopsis}}</p>{{end}}
<div class="nav">
<a href="/">library</a>
{{if .PrevURL}}<a href="{{.PrevURL}}">&larr; previous</a>{{end}}
{{if .NextURL}}<a href="{{.NextURL}}">next &rarr;</a>{{end}}
</div>
</div>
<script>
(function () {
  var video = document.getElementById("video");
  var src = {{.Episode.StreamURL}};
  var resumeAt = {{.ResumeAt}};
  var autoPlay = {{.AutoPlay}};
  var autoNext = {{.AutoNext}};
  var nextURL = {{.NextURL}};
  var progressURL = {{.ProgressURL}};
  var countdown = {{.Countdown}};

  var qualitySel = document.getElementById("quality");
  var hls = null;
  if (src.indexOf(".m3u8") !== -1 && window.Hls && Hls.isSupported()) {
    hls = new Hls();
    hls.loadSource(src);
    hls.attachMedia(video);
    hls.on(Hls.Events.MANIFEST_PARSED, function (_, data) {
      qualitySel.style.display = "inline-block";
      qualitySel.innerHTML = "";
      var auto = document.createElement("option");
      auto.value = "-1";
      auto.textContent = "Auto";
      qualitySel.appendChild(auto);
      data.levels.forEach(function (level, i) {
        var opt = document.createElement("option");
        opt.value = String(i);
        if (level.height) {
          opt.textContent = level.height + "p";
        } else if (level.bitrate) {
          opt.textContent = Math.round(level.bitrate / 1000) + "kbps";
        } else {
          opt.textContent = "Level " + i;
        }
        qualitySel.appendChild(opt);
      });
    });
    qualitySel.addEventListener("change", function () {
      hls.currentLevel = parseInt(qualitySel.value, 10);
    });
  } else {
    video.src = src;
  }

  video.addEventListener("loadedmetadata", function () {
    if (resumeAt > 0) {
      video.currentTime = Math.max(0, resumeAt - 1);
    }
  });

  var lastSave = 0;
  function save() {
    var body = JSON.stringify({ t: Math.floor(video.currentTime), d: Math.floor(video.duration || 0) });
    navigator.sendBeacon
      ? navigator.sendBeacon(progressURL, new Blob([body], { type: "application/json" }))
      : fetch(progressURL, { method: "POST", headers: { "Content-Type": "application/json" }, body: body });
  }
  video.addEventListener("timeupdate", function () {
    var now = Date.now();
    if (now - lastSave > 2000) {
      lastSave = now;
      save();
    }
  });
  video.addEventListener("pause", save);
  window.addEventListener("pagehide", save);

  var overlay = document.getElementById("next-overlay");
  var countEl = document.getElementById("next-count");
  var tickTimer = null, deadline = null;
  function clearCountdown() {
    if (tickTimer) { clearInterval(tickTimer); tickTimer = null; }
    if (deadline) { clearTimeout(deadline); deadline = null; }
    overlay.style.display = "none";
  }
  video.addEventListener("ended", function () {
    save();
    if (!autoNext || !nextURL) return;
    var remaining = countdown;
    countEl.textContent = String(remaining);
    overlay.style.display = "block";
    tickTimer = setInterval(function () {
      remaining = Math.max(0, remaining - 1);
      countEl.textContent = String(remaining);
    }, 1000);
    deadline = setTimeout(function () {
      clearCountdown();
      window.location.href = nextURL;
    }, countdown * 1000);
  });
  document.getElementById("next-now").addEventListener("click", function () {
    clearCountdown();
    window.location.href = nextURL;
  });
  document.getElementById("next-cancel").addEventListener("click", clearCountdown);

  function goFull() {
    if (video.requestFullscreen) {
      video.requestFullscreen();
    } else if (video.webkitEnterFullscreen) {
      video.webkitEnterFullscreen();
    }
  }
  document.addEventListener("keydown", function (e) {
    if (e.target.tagName === "INPUT" || e.target.tagName === "SELECT") return;
    if (e.key === "f" || e.key === "F") {
      e.preventDefault();
      document.fullscreenElement ? document.exitFullscreen() : goFull();
    } else if (e.key === "k" || e.key === "K" || e.key === " ") {
      e.preventDefault();
      video.paused ? video.play() : video.pause();
    }
  });
  video.addEventListener("click", function () {
    if (!document.fullscreenElement) goFull();
  });

  if (autoPlay) {
    video.muted = true;
    var p = video.play();
    if (p && p.catch) p.catch(function () {});
  }
})();
</script>
</body>
</html>
`))

var notFoundTemplate = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Not found — anistream</title>
<style>
:root { --bg: #f8fafc; --text: #0f172a; --muted: #64748b; --accent: #6366f1; }
html[data-theme="dark"] { --bg: #0f172a; --text: #e2e8f0; --muted: #94a3b8; }
body { background: var(--bg); color: var(--text); font-family: -apple-system, "Segoe UI", Roboto, sans-serif; display: flex; min-height: 100vh; align-items: center; justify-content: center; margin: 0; }
main { text-align: center; }
h1 { font-size: 2rem; }
p { color: var(--muted); }
a { color: var(--accent); }
</style>
</head>
<body>
<main>
<h1>404</h1>
<p>That episode isn't in the catalog.</p>
<p><a href="/">Back to the library</a></p>
</main>
</body>
</html>
`))
