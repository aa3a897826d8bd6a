package api

import "net/http"

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	// Issue the session cookie with the page so the first field update
	// already belongs to a session.
	s.session(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(pageHTML))
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>QR Code Generator</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #fafafa;
    color: #18181b;
    min-height: 100vh;
  }
  nav {
    display: flex;
    justify-content: space-between;
    align-items: center;
    padding: 16px 32px;
    border-bottom: 1px solid #e4e4e7;
    background: #fff;
  }
  nav a { color: #18181b; text-decoration: none; font-weight: 600; }
  nav .links a { font-weight: 400; margin-left: 16px; color: #71717a; }
  .card {
    display: flex;
    gap: 20px;
    max-width: 900px;
    margin: 40px auto;
    padding: 24px;
    background: #fff;
    border-radius: 8px;
    box-shadow: 0 1px 3px rgba(0,0,0,.1);
  }
  .fields { flex: 0 0 420px; display: flex; flex-direction: column; gap: 12px; }
  h1 { font-size: 24px; text-align: center; }
  label { font-size: 14px; color: #3f3f46; }
  input, select {
    width: 100%;
    padding: 8px;
    border: 1px solid #d4d4d8;
    border-radius: 6px;
    font-size: 14px;
  }
  input[type=color] { width: 50px; height: 32px; padding: 2px; }
  .row { display: flex; justify-content: space-between; align-items: center; gap: 12px; }
  .row label { flex: 0 0 140px; }
  .preview { position: relative; flex: 1; display: flex; justify-content: center; align-items: center; }
  .preview img { max-width: 100%; border: 1px solid #e4e4e7; border-radius: 8px; }
  .placeholder { color: #a1a1aa; font-size: 14px; }
  #download {
    position: absolute;
    bottom: 16px;
    left: 50%;
    transform: translateX(-50%);
    padding: 8px 16px;
    border: 1px solid #a1a1aa;
    border-radius: 8px;
    background: #e4e4e7;
    cursor: pointer;
  }
  #toasts { position: fixed; top: 16px; left: 50%; transform: translateX(-50%); }
  .toast {
    margin-bottom: 8px;
    padding: 10px 16px;
    border-radius: 8px;
    background: #fff;
    box-shadow: 0 2px 8px rgba(0,0,0,.15);
    font-size: 14px;
  }
  .toast.error { border-left: 4px solid #ef4444; }
  .toast.success { border-left: 4px solid #22c55e; }
</style>
</head>
<body>
<nav>
  <a href="/">QR Code Generator</a>
  <span class="links"><a href="/history">History</a><a href="/status">Status</a></span>
</nav>
<form id="qr-form" class="card">
  <div class="fields">
    <h1>QR Code Generator</h1>
    <label for="text">Input</label>
    <input id="text" name="text" type="text" placeholder="Enter text or URL">
    <div class="row">
      <select id="error_correction" name="error_correction"></select>
      <select id="type" name="type">
        <option value="image/png">PNG</option>
        <option value="image/jpeg">JPEG</option>
        <option value="image/webp">WEBP</option>
      </select>
    </div>
    <div class="row"><label for="quality">Quality</label><input id="quality" name="quality" type="number" min="0" max="1" step="0.1"></div>
    <div class="row"><label for="margin">Margin</label><input id="margin" name="margin" type="number" min="0"></div>
    <div class="row"><label for="width">Size (px)</label><input id="width" name="width" type="number" min="0" step="20"></div>
    <div class="row"><label for="foreground">Foreground Color (Dark)</label><input id="foreground" name="foreground" type="color"></div>
    <div class="row"><label for="background">Background Color (White)</label><input id="background" name="background" type="color"></div>
  </div>
  <div class="preview" id="preview">
    <span class="placeholder">Your QR code will appear here</span>
  </div>
</form>
<div id="toasts"></div>
<script>
(function() {
  var form = document.getElementById('qr-form');
  var preview = document.getElementById('preview');
  var toasts = document.getElementById('toasts');
  var fields = ['text', 'error_correction', 'type', 'quality', 'margin', 'width', 'foreground', 'background'];
  var levelsLoaded = false;

  function clearChildren(el) {
    while (el.firstChild) el.removeChild(el.firstChild);
  }

  function toast(n) {
    var el = document.createElement('div');
    el.className = 'toast ' + n.kind;
    el.textContent = n.message;
    toasts.appendChild(el);
    setTimeout(function() { toasts.removeChild(el); }, 3000);
  }

  function render(data) {
    if (!levelsLoaded && data.levels) {
      var sel = document.getElementById('error_correction');
      data.levels.forEach(function(l) {
        var opt = document.createElement('option');
        opt.value = l.value;
        opt.textContent = l.label;
        sel.appendChild(opt);
      });
      levelsLoaded = true;
    }
    var o = data.options;
    fields.forEach(function(f) {
      var el = document.getElementById(f);
      if (f !== 'text' && document.activeElement !== el && o[f] !== undefined) el.value = o[f];
    });
    if (data.has_image) {
      clearChildren(preview);
      var img = document.createElement('img');
      img.setAttribute('alt', 'QR Code');
      img.setAttribute('src', data.data_uri);
      preview.appendChild(img);
      var btn = document.createElement('button');
      btn.id = 'download';
      btn.type = 'button';
      btn.textContent = 'Download QR Code';
      btn.addEventListener('click', download);
      preview.appendChild(btn);
    }
    (data.notifications || []).forEach(toast);
  }

  function request(method, path, body) {
    var init = { method: method, credentials: 'same-origin' };
    if (body) {
      init.headers = { 'Content-Type': 'application/json' };
      init.body = JSON.stringify(body);
    }
    return fetch(path, init)
      .then(function(r) { return r.json(); })
      .then(render)
      .catch(function() { toast({ kind: 'error', message: 'Connection error' }); });
  }

  function download() {
    var a = document.createElement('a');
    a.href = '/form/download';
    a.click();
    setTimeout(function() { request('GET', '/form/state'); }, 300);
  }

  fields.forEach(function(f) {
    var el = document.getElementById(f);
    var evt = el.tagName === 'SELECT' ? 'change' : 'input';
    el.addEventListener(evt, function() {
      request('POST', '/form/field', { field: f, value: el.value });
    });
  });

  form.addEventListener('submit', function(e) {
    e.preventDefault();
    request('POST', '/form/generate');
  });

  request('GET', '/form/state');
})();
</script>
</body>
</html>`
