package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const demoHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>TrustNet 360°</title>
    <meta name="description" content="Continuous identity verification demo">
    <link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>🛡</text></svg>">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --text-tertiary: #52525b;
            --accent: #22c55e;
            --accent-dim: rgba(34, 197, 94, 0.1);
            --red: #ef4444;
            --amber: #f59e0b;
            --blue: #3b82f6;
        }

        body {
            font-family: 'Inter', -apple-system, sans-serif;
            background: var(--bg);
            color: var(--text);
            min-height: 100vh;
            font-size: 14px;
            line-height: 1.5;
            -webkit-font-smoothing: antialiased;
        }

        .mono { font-family: 'JetBrains Mono', monospace; }

        .container { max-width: 1100px; margin: 0 auto; padding: 0 24px; }

        header {
            border-bottom: 1px solid var(--border);
            padding: 20px 0;
            margin-bottom: 32px;
        }
        header .container { display: flex; justify-content: space-between; align-items: center; }
        .logo { font-size: 18px; font-weight: 600; }
        .logo span { color: var(--accent); }
        .status-pill {
            font-size: 12px;
            color: var(--text-secondary);
            border: 1px solid var(--border);
            border-radius: 999px;
            padding: 4px 12px;
        }
        .status-pill.live { color: var(--accent); border-color: var(--accent); }

        .grid { display: grid; grid-template-columns: 1fr 1fr; gap: 24px; }
        @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }

        .card {
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 24px;
        }
        .card h2 {
            font-size: 13px;
            font-weight: 600;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--text-secondary);
            margin-bottom: 16px;
        }

        video, .camera-placeholder {
            width: 100%;
            aspect-ratio: 4 / 3;
            background: #000;
            border-radius: 6px;
            border: 1px solid var(--border);
            object-fit: cover;
        }
        .camera-placeholder {
            display: flex;
            align-items: center;
            justify-content: center;
            color: var(--text-tertiary);
        }

        button {
            background: var(--accent-dim);
            color: var(--accent);
            border: 1px solid var(--accent);
            border-radius: 6px;
            padding: 8px 16px;
            font-size: 13px;
            font-weight: 500;
            cursor: pointer;
            margin-right: 8px;
            margin-top: 12px;
        }
        button:disabled { opacity: 0.4; cursor: not-allowed; }
        button.secondary { color: var(--text-secondary); border-color: var(--border); background: transparent; }

        .instruction {
            background: var(--accent-dim);
            border: 1px solid var(--accent);
            border-radius: 6px;
            padding: 12px;
            margin-top: 12px;
            display: none;
        }
        .instruction .kind { font-size: 11px; color: var(--accent); text-transform: uppercase; }

        .score-display { text-align: center; padding: 12px 0; }
        .score-value { font-size: 56px; font-weight: 600; }
        .score-level { font-size: 13px; color: var(--text-secondary); margin-top: 4px; }
        .score-level.HIGH { color: var(--accent); }
        .score-level.MEDIUM { color: var(--amber); }
        .score-level.LOW { color: var(--red); }

        .metric-row {
            display: flex;
            justify-content: space-between;
            padding: 6px 0;
            border-bottom: 1px solid var(--border);
            font-size: 13px;
        }
        .metric-row:last-child { border-bottom: none; }
        .metric-row .label { color: var(--text-secondary); }

        #eventLog {
            height: 220px;
            overflow-y: auto;
            font-size: 12px;
            color: var(--text-secondary);
        }
        #eventLog div { padding: 3px 0; border-bottom: 1px solid var(--border); }
        #eventLog .type { color: var(--blue); }
    </style>
</head>
<body>
    <header>
        <div class="container">
            <div class="logo">TrustNet <span>360°</span></div>
            <div id="statusPill" class="status-pill">idle</div>
        </div>
    </header>

    <div class="container">
        <div class="grid">
            <div>
                <div class="card">
                    <h2>Verification Session</h2>
                    <video id="video" autoplay muted playsinline style="display:none"></video>
                    <div id="cameraPlaceholder" class="camera-placeholder">camera off — simulated frames in use</div>
                    <button id="startBtn" onclick="startSession()">Start Verification</button>
                    <button id="stopBtn" class="secondary" onclick="stopSession()" disabled>Stop</button>
                </div>
                <div class="card">
                    <h2>Active Challenge</h2>
                    <div id="instruction" class="instruction">
                        <div class="kind" id="challengeKind"></div>
                        <div id="challengeText"></div>
                    </div>
                    <button id="challengeBtn" onclick="requestChallenge()" disabled>New Challenge</button>
                    <button id="validateBtn" class="secondary" onclick="validateChallenge()" disabled>Complete Challenge</button>
                    <div id="validationResult" class="mono" style="margin-top:12px;font-size:12px"></div>
                </div>
            </div>
            <div>
                <div class="card">
                    <h2>Trust Score</h2>
                    <div class="score-display">
                        <div id="scoreValue" class="score-value mono">—</div>
                        <div id="scoreLevel" class="score-level">not evaluated</div>
                    </div>
                    <div id="riskFactors" style="font-size:12px;color:var(--text-tertiary)"></div>
                </div>
                <div class="card">
                    <h2>Biometrics</h2>
                    <div class="metric-row"><span class="label">Heart rate</span><span id="heartRate" class="mono">—</span></div>
                    <div class="metric-row"><span class="label">Liveness</span><span id="liveness" class="mono">—</span></div>
                    <div class="metric-row"><span class="label">Deepfake probability</span><span id="deepfake" class="mono">—</span></div>
                    <div class="metric-row"><span class="label">Face detected</span><span id="faceDetected" class="mono">—</span></div>
                </div>
                <div class="card">
                    <h2>Live Events</h2>
                    <div id="eventLog"></div>
                </div>
            </div>
        </div>
    </div>

    <script>
        let running = false;
        let stream = null;
        let currentChallengeId = null;
        let frameTimer = null;
        let scoreTimer = null;
        let ws = null;

        function logEvent(type, detail) {
            const log = document.getElementById('eventLog');
            const row = document.createElement('div');
            row.innerHTML = '<span class="type">' + type + '</span> ' + detail;
            log.prepend(row);
            while (log.children.length > 50) log.removeChild(log.lastChild);
        }

        function connectWebSocket() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(proto + '//' + location.host + '/ws');
            ws.onopen = () => ws.send(JSON.stringify({ allEvents: true }));
            ws.onmessage = (msg) => {
                try {
                    const ev = JSON.parse(msg.data);
                    logEvent(ev.type, JSON.stringify(ev.data).slice(0, 80));
                } catch (e) { /* ignore malformed frames */ }
            };
            ws.onclose = () => { if (running) setTimeout(connectWebSocket, 2000); };
        }

        async function startSession() {
            running = true;
            document.getElementById('startBtn').disabled = true;
            document.getElementById('stopBtn').disabled = false;
            document.getElementById('challengeBtn').disabled = false;
            document.getElementById('statusPill').textContent = 'verifying';
            document.getElementById('statusPill').classList.add('live');

            try {
                stream = await navigator.mediaDevices.getUserMedia({ video: true });
                const video = document.getElementById('video');
                video.srcObject = stream;
                video.style.display = 'block';
                document.getElementById('cameraPlaceholder').style.display = 'none';
            } catch (err) {
                // No camera: the backend simulates readings either way
                logEvent('camera', 'unavailable, using simulated frames');
            }

            connectWebSocket();
            await fetch('/api/demo/session', { method: 'POST' });

            frameTimer = setInterval(processFrame, 2000);
            scoreTimer = setInterval(refreshScore, 3000);
            refreshScore();
        }

        function stopSession() {
            running = false;
            clearInterval(frameTimer);
            clearInterval(scoreTimer);
            if (stream) { stream.getTracks().forEach(t => t.stop()); stream = null; }
            if (ws) ws.close();
            document.getElementById('video').style.display = 'none';
            document.getElementById('cameraPlaceholder').style.display = 'flex';
            document.getElementById('startBtn').disabled = false;
            document.getElementById('stopBtn').disabled = true;
            document.getElementById('challengeBtn').disabled = true;
            document.getElementById('validateBtn').disabled = true;
            document.getElementById('statusPill').textContent = 'idle';
            document.getElementById('statusPill').classList.remove('live');
        }

        function captureFrame() {
            const video = document.getElementById('video');
            if (!stream || !video.videoWidth) return 'demo';
            const canvas = document.createElement('canvas');
            canvas.width = 320;
            canvas.height = 240;
            canvas.getContext('2d').drawImage(video, 0, 0, 320, 240);
            return canvas.toDataURL('image/jpeg', 0.5);
        }

        async function processFrame() {
            try {
                const res = await fetch('/api/biometric/process-frame', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/x-www-form-urlencoded' },
                    body: new URLSearchParams({ frame_data: captureFrame() })
                });
                const data = await res.json();
                document.getElementById('heartRate').textContent = data.heart_rate.toFixed(0) + ' bpm';
                document.getElementById('liveness').textContent = (data.liveness_score * 100).toFixed(1) + '%';
                document.getElementById('deepfake').textContent = (data.deepfake_probability * 100).toFixed(1) + '%';
                document.getElementById('faceDetected').textContent = data.face_detected ? 'yes' : 'no';
            } catch (err) {
                console.error('frame error:', err);
            }
        }

        async function refreshScore() {
            try {
                const res = await fetch('/api/trust/current-score');
                const data = await res.json();
                document.getElementById('scoreValue').textContent = data.current_score.toFixed(1);
                const level = document.getElementById('scoreLevel');
                level.textContent = data.trust_level + ' · ' + data.recommended_action;
                level.className = 'score-level ' + data.trust_level;
                document.getElementById('riskFactors').textContent = data.risk_factors.join(' · ');
            } catch (err) {
                console.error('score error:', err);
            }
        }

        async function requestChallenge() {
            try {
                const res = await fetch('/api/vkyc/challenge', { method: 'POST' });
                const data = await res.json();
                currentChallengeId = data.challenge_id;
                document.getElementById('instruction').style.display = 'block';
                document.getElementById('challengeKind').textContent = data.challenge_type.replace('_', ' ');
                document.getElementById('challengeText').textContent = data.instruction;
                document.getElementById('validateBtn').disabled = false;
                document.getElementById('validationResult').textContent = '';
            } catch (err) {
                console.error('challenge error:', err);
            }
        }

        async function validateChallenge() {
            if (!currentChallengeId) return;
            try {
                const res = await fetch('/api/vkyc/validate', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/x-www-form-urlencoded' },
                    body: new URLSearchParams({
                        challenge_id: currentChallengeId,
                        response_data: JSON.stringify({ completed: true })
                    })
                });
                const data = await res.json();
                const out = document.getElementById('validationResult');
                if (data.valid) {
                    out.textContent = 'PASSED — confidence ' + (data.confidence * 100).toFixed(1) + '%';
                    out.style.color = 'var(--accent)';
                } else {
                    out.textContent = 'FAILED' + (data.anomalies.length ? ' — ' + data.anomalies.join(', ') : '');
                    out.style.color = 'var(--red)';
                }
                currentChallengeId = null;
                document.getElementById('validateBtn').disabled = true;
            } catch (err) {
                console.error('validate error:', err);
            }
        }
    </script>
</body>
</html>`

// demoPageHandler serves the interactive verification demo
func demoPageHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, demoHTML)
}
