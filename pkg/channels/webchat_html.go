package channels

var webChatHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>HookChat</title>
<style>
:root{
  --bg:#f4f5f7;--panel:#ffffff;--line:#e3e5ea;
  --ink:#23262d;--ink-soft:#7b8089;
  --me:#2f6fed;--me-ink:#ffffff;
  --bot:#eef0f4;--bot-ink:#23262d;
  --err:#c2413b;
}
*{box-sizing:border-box;margin:0;padding:0}
html,body{height:100%}
body{
  font-family:system-ui,-apple-system,'Segoe UI',sans-serif;
  background:var(--bg);color:var(--ink);
  display:flex;justify-content:center;
}
#app{
  width:100%;max-width:640px;height:100%;
  display:flex;flex-direction:column;
  background:var(--panel);border-left:1px solid var(--line);border-right:1px solid var(--line);
}
header{
  padding:14px 20px;border-bottom:1px solid var(--line);
  display:flex;align-items:center;gap:12px;
}
header .mark{
  width:34px;height:34px;border-radius:50%;background:var(--me);
  color:#fff;display:flex;align-items:center;justify-content:center;
  font-weight:700;font-size:15px;
}
header h1{font-size:15px;font-weight:600}
header .sub{font-size:12px;color:var(--ink-soft)}
#log{
  flex:1;overflow-y:auto;padding:20px;
  display:flex;flex-direction:column;gap:12px;
}
.row{display:flex;gap:8px;align-items:flex-end}
.row.me{flex-direction:row-reverse}
.avatar{
  width:28px;height:28px;border-radius:50%;flex-shrink:0;
  display:flex;align-items:center;justify-content:center;
  font-size:12px;font-weight:600;
}
.row.me .avatar{background:var(--me);color:var(--me-ink)}
.row.bot .avatar{background:var(--bot);color:var(--ink-soft);border:1px solid var(--line)}
.bubble{
  max-width:75%;padding:10px 14px;border-radius:14px;
  font-size:14px;line-height:1.55;white-space:pre-wrap;word-wrap:break-word;
}
.row.me .bubble{background:var(--me);color:var(--me-ink);border-bottom-right-radius:4px}
.row.bot .bubble{background:var(--bot);color:var(--bot-ink);border-bottom-left-radius:4px}
.row.err .bubble{background:#fdf0ef;color:var(--err);border:1px solid #f0d4d2}
.stamp{font-size:10px;color:var(--ink-soft);margin-top:4px;display:block}
.row.me .stamp{color:rgba(255,255,255,.7)}
#typing{min-height:22px;padding:0 20px;font-size:12px;color:var(--ink-soft);flex-shrink:0}
footer{padding:12px 16px 16px;border-top:1px solid var(--line)}
#form{display:flex;gap:8px}
#msg{
  flex:1;padding:11px 14px;border:1px solid var(--line);border-radius:10px;
  font-size:14px;font-family:inherit;outline:none;resize:none;max-height:110px;
}
#msg:focus{border-color:var(--me)}
#go{
  padding:0 18px;border:none;border-radius:10px;background:var(--me);
  color:#fff;font-size:14px;font-weight:600;cursor:pointer;font-family:inherit;
}
#go:disabled{opacity:.4;cursor:default}
@keyframes blink{50%{opacity:.3}}
#typing .dot{animation:blink 1s infinite}
</style>
</head>
<body>
<div id="app">
  <header>
    <div class="mark">H</div>
    <div><h1>HookChat</h1><div class="sub">webhook relay</div></div>
  </header>
  <div id="log"></div>
  <div id="typing"></div>
  <footer>
    <form id="form">
      <textarea id="msg" rows="1" placeholder="Type a message" aria-label="Message"></textarea>
      <button id="go" type="submit">Send</button>
    </form>
  </footer>
</div>
<script>
var log=document.getElementById("log"),
    form=document.getElementById("form"),
    msg=document.getElementById("msg"),
    go=document.getElementById("go"),
    typing=document.getElementById("typing"),
    chatID="default",
    busy=false;

function stamp(){return new Date().toLocaleTimeString([],{hour:"2-digit",minute:"2-digit"})}
function add(kind,text,when){
  var row=document.createElement("div");
  row.className="row "+kind;
  var av=document.createElement("div");
  av.className="avatar";
  av.textContent=kind==="me"?"You":"H";
  var b=document.createElement("div");
  b.className="bubble";
  b.textContent=text;
  if(when){
    var s=document.createElement("span");
    s.className="stamp";s.textContent=when;
    b.appendChild(s);
  }
  row.appendChild(av);row.appendChild(b);
  log.appendChild(row);
  log.scrollTop=log.scrollHeight;
}
function showTyping(){typing.innerHTML='Waiting for reply<span class="dot">...</span>'}
function hideTyping(){typing.innerHTML=""}

function loadHistory(){
  fetch("/api/history?chat_id="+encodeURIComponent(chatID)).then(function(r){return r.json()}).then(function(list){
    list.forEach(function(m){add(m.role==="user"?"me":"bot",m.content,m.time)});
  }).catch(function(){});
}

function openSession(){
  fetch("/api/session").then(function(r){return r.json()}).then(function(d){
    if(d.chat_id)chatID=d.chat_id;
    loadHistory();
  }).catch(function(){loadHistory()});
}

function send(){
  var text=msg.value.trim();
  if(!text||busy)return;
  busy=true;go.disabled=true;
  msg.value="";msg.style.height="auto";
  add("me",text,stamp());
  showTyping();
  fetch("/api/send",{
    method:"POST",
    headers:{"Content-Type":"application/json"},
    body:JSON.stringify({chat_id:chatID,message:text})
  }).then(function(r){
    return r.json().then(function(d){
      if(!r.ok)throw new Error(d.error||r.statusText);
      add("bot",d.message,stamp());
    });
  }).catch(function(e){
    add("err","Could not reach the flow: "+e.message);
  }).finally(function(){
    hideTyping();busy=false;go.disabled=false;msg.focus();
  });
}

form.onsubmit=function(e){e.preventDefault();send()};
msg.onkeydown=function(e){if(e.key==="Enter"&&!e.shiftKey){e.preventDefault();send()}};
msg.oninput=function(){msg.style.height="auto";msg.style.height=Math.min(msg.scrollHeight,110)+"px"};
openSession();
msg.focus();
</script>
</body>
</html>`
