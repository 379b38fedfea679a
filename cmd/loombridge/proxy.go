package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/go-chi/chi/v5"
	"github.com/loomworks/ai-bridge/internal/credentials"
	"github.com/loomworks/ai-bridge/internal/logging"
	"github.com/loomworks/ai-bridge/internal/metrics"
	"github.com/loomworks/ai-bridge/internal/usagelog"
	"github.com/loomworks/ai-bridge/providers"
	"github.com/tidwall/gjson"
)

const proxyRoutePrefix = "/v1/ai-providers/proxy/"

// bearerScheme is the client-leg auth shape for providers whose vendor leg
// is request-signed: clients cannot SigV4-sign against the bridge, so the
// token travels as a plain bearer header instead.
var bearerScheme = providers.AuthScheme{
	Kind:   providers.AuthHeader,
	Header: "Authorization",
	Prefix: "Bearer ",
}

// streamClient performs raw upstream streaming calls. No client timeout:
// streams run until the vendor closes them or the request context cancels.
var streamClient = &http.Client{}

// proxyOutcome accumulates what one forwarding leg learned about the
// exchange. finishProxy turns it into breaker signals, metrics, and a
// usage record.
type proxyOutcome struct {
	status     int
	model      string
	prompt     int
	completion int
	streamed   bool
	err        error
}

// handleProxy is the forwarder: it authenticates the bridge token, applies
// rate limiting and breaker checks, then relays the request to the vendor
// with the stored credential swapped in.
func (s *server) handleProxy(w http.ResponseWriter, r *http.Request) {
	desc, err := s.registry.Find(chi.URLParam(r, "providerID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "", "unknown_provider")
		return
	}
	ctx := r.Context()

	clientScheme := desc.Auth
	if clientScheme.Kind == providers.AuthSigV4 {
		clientScheme = bearerScheme
	}
	raw, ok := clientScheme.Extract(r.Header.Get(clientScheme.Header))
	if !ok || raw == "" {
		metrics.TokenValidations.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusUnauthorized, "missing bridge token in "+clientScheme.Header+" header", "", "missing_token")
		return
	}

	token, err := s.store.ValidateToken(ctx, raw)
	switch {
	case errors.Is(err, credentials.ErrTokenExpired):
		metrics.TokenValidations.WithLabelValues("expired").Inc()
		writeError(w, http.StatusUnauthorized, "bridge token expired", "", "token_expired")
		return
	case err != nil:
		metrics.TokenValidations.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusUnauthorized, "invalid bridge token", "", "invalid_token")
		return
	}
	if token.Provider != "" && token.Provider != desc.ID {
		metrics.TokenValidations.WithLabelValues("scope_mismatch").Inc()
		writeError(w, http.StatusForbidden, "token is scoped to provider "+token.Provider, "", "scope_mismatch")
		return
	}
	metrics.TokenValidations.WithLabelValues("valid").Inc()

	if !s.gate.Allow(token.Project, desc.ID) {
		metrics.RateLimitRejections.WithLabelValues(token.Project).Inc()
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded for project "+token.Project, "", "rate_limited")
		return
	}

	if !s.breakers.Breaker(desc.ID).Allow() {
		metrics.ProviderErrors.WithLabelValues(desc.ID, "circuit_open").Inc()
		metrics.ProxyRequests.WithLabelValues(desc.ID, "error").Inc()
		writeError(w, http.StatusServiceUnavailable, "provider "+desc.ID+" is temporarily unavailable (circuit open)", "", "circuit_open")
		return
	}

	cred, err := s.store.CredentialForProvider(ctx, desc.ID)
	if errors.Is(err, credentials.ErrCredentialNotFound) {
		writeError(w, http.StatusConflict, "no credential configured for provider "+desc.ID, "", "missing_credential")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "", "internal_error")
		return
	}

	out := &proxyOutcome{}
	start := time.Now()
	if desc.Auth.Kind == providers.AuthSigV4 {
		s.forwardBedrock(w, r, desc, cred, out)
	} else {
		s.forwardHeaderAuth(w, r, desc, cred, out)
	}
	s.finishProxy(ctx, desc, token, out, time.Since(start))
}

// forwardHeaderAuth relays a request to a header-authenticated vendor via a
// reverse proxy that swaps the bridge token for the stored credential.
func (s *server) forwardHeaderAuth(w http.ResponseWriter, r *http.Request, desc providers.Descriptor, cred credentials.VendorCredential, out *proxyOutcome) {
	secret, err := s.resolver.Resolve(r.Context(), cred)
	if err != nil {
		out.err = fmt.Errorf("resolve credential: %w", err)
		out.status = http.StatusBadGateway
		writeError(w, http.StatusBadGateway, "credential resolution failed: "+err.Error(), "", "credential_resolve_failed")
		return
	}

	baseURL := desc.BaseURL
	if cred.BaseURL != "" {
		baseURL = cred.BaseURL
	}
	if baseURL == "" {
		out.status = http.StatusConflict
		writeError(w, http.StatusConflict, "provider "+desc.ID+" requires a credential with a base_url (the vendor resource endpoint)", "", "missing_base_url")
		return
	}
	target, err := url.Parse(baseURL)
	if err != nil {
		out.status = http.StatusConflict
		writeError(w, http.StatusConflict, "invalid vendor base URL: "+err.Error(), "", "invalid_base_url")
		return
	}

	prefix := proxyRoutePrefix + desc.ID
	inboundHost := r.Host
	authHeaders := desc.Auth.Headers(secret)

	proxy := httputil.NewSingleHostReverseProxy(target)

	// Director rewrites the outgoing request URL and replaces the bridge
	// token with the vendor credential.
	proxy.Director = func(req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, prefix)
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = strings.TrimSuffix(target.Path, "/") + rest
		req.URL.RawPath = ""
		req.Host = target.Host

		req.Header.Del("Authorization")
		if desc.Auth.Header != "" {
			req.Header.Del(desc.Auth.Header)
		}
		for k, v := range authHeaders {
			req.Header.Set(k, v)
		}

		req.Header.Set("X-Forwarded-Host", inboundHost)
		// Let the transport negotiate gzip so metered bodies arrive decoded.
		req.Header.Del("Accept-Encoding")
	}

	proxy.ModifyResponse = func(resp *http.Response) error {
		out.status = resp.StatusCode
		resp.Header.Set("X-AI-Bridge-Provider", desc.ID)
		return meterResponse(resp, out)
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
		out.err = err
		out.status = http.StatusBadGateway
		writeError(w, http.StatusBadGateway, "upstream request failed: "+err.Error(), "", "bad_gateway")
	}

	proxy.ServeHTTP(w, r)
}

// meterResponse buffers successful JSON response bodies to extract token
// usage, then restores the body for the client. Streaming and non-JSON
// responses pass through untouched.
func meterResponse(resp *http.Response, out *proxyOutcome) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.Body == nil {
		return nil
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		out.streamed = strings.HasPrefix(ct, "text/event-stream")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))

	out.prompt, out.completion, out.model = usageFromBody(body)
	return nil
}

// usageFromBody extracts token counts and the reported model from a vendor
// response. Field names differ per wire format; each lookup walks the known
// spellings in order.
func usageFromBody(body []byte) (prompt, completion int, model string) {
	prompt = firstInt(body,
		"usage.prompt_tokens",            // openai-compatible
		"usage.input_tokens",             // anthropic
		"usage.tokens.input_tokens",      // cohere
		"usageMetadata.promptTokenCount", // gemini
		"prompt_token_count",             // meta llama on bedrock
		"inputTextTokenCount",            // amazon titan
	)
	completion = firstInt(body,
		"usage.completion_tokens",
		"usage.output_tokens",
		"usage.tokens.output_tokens",
		"usageMetadata.candidatesTokenCount",
		"generation_token_count",
		"results.0.tokenCount",
	)
	model = gjson.GetBytes(body, "model").String()
	if model == "" {
		model = gjson.GetBytes(body, "modelVersion").String()
	}
	return prompt, completion, model
}

func firstInt(body []byte, paths ...string) int {
	for _, p := range paths {
		if v := gjson.GetBytes(body, p); v.Exists() {
			return int(v.Int())
		}
	}
	return 0
}

// finishProxy converts the outcome of one forwarded exchange into breaker
// signals, metrics, and a usage record.
func (s *server) finishProxy(ctx context.Context, desc providers.Descriptor, token credentials.RequestToken, out *proxyOutcome, elapsed time.Duration) {
	cb := s.breakers.Breaker(desc.ID)
	switch {
	case out.err != nil:
		cb.RecordFailure()
		metrics.ProviderErrors.WithLabelValues(desc.ID, "bad_gateway").Inc()
		metrics.ProxyRequests.WithLabelValues(desc.ID, "error").Inc()
	case out.status >= 500:
		cb.RecordFailure()
		metrics.ProviderErrors.WithLabelValues(desc.ID, "upstream_error").Inc()
		metrics.ProxyRequests.WithLabelValues(desc.ID, statusClass(out.status)).Inc()
	default:
		cb.RecordSuccess()
		metrics.ProxyRequests.WithLabelValues(desc.ID, statusClass(out.status)).Inc()
	}
	metrics.ProxyDuration.WithLabelValues(desc.ID).Observe(elapsed.Seconds())
	if out.prompt > 0 {
		metrics.TokensInput.WithLabelValues(desc.ID, out.model).Add(float64(out.prompt))
	}
	if out.completion > 0 {
		metrics.TokensOutput.WithLabelValues(desc.ID, out.model).Add(float64(out.completion))
	}

	rec := usagelog.Record{
		TraceID:          logging.TraceIDFromContext(ctx),
		Project:          token.Project,
		Provider:         desc.ID,
		Model:            out.model,
		StatusCode:       out.status,
		PromptTokens:     out.prompt,
		CompletionTokens: out.completion,
		CostUSD:          providers.EstimateCost(desc.ID, out.model, out.prompt, out.completion),
		LatencyMS:        elapsed.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}
	if mod, ok := desc.ModelModality(out.model); ok {
		rec.Modality = string(mod)
	}
	if err := s.usage.Write(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("usage record write failed", "error", err)
	}

	logging.FromContext(ctx).Debug("proxied request",
		"provider", desc.ID,
		"project", token.Project,
		"model", out.model,
		"status", out.status,
		"streamed", out.streamed,
		"latency_ms", elapsed.Milliseconds(),
	)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

// bedrockClients caches SDK runtime clients per credential ID.
type bedrockClients struct {
	mu      sync.Mutex
	clients map[string]*bedrockruntime.Client
}

// bedrockEndpoint returns the runtime endpoint for a credential, honoring
// the per-credential override used by private deployments.
func bedrockEndpoint(cred credentials.VendorCredential) string {
	if cred.BaseURL != "" {
		return strings.TrimSuffix(cred.BaseURL, "/")
	}
	return "https://bedrock-runtime." + cred.Region + ".amazonaws.com"
}

func (s *server) bedrockRuntime(ctx context.Context, cred credentials.VendorCredential) (*bedrockruntime.Client, error) {
	s.bedrock.mu.Lock()
	defer s.bedrock.mu.Unlock()
	if c, ok := s.bedrock.clients[cred.ID]; ok {
		return c, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cred.Region),
		awsconfig.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider(cred.AccessKeyID, cred.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, err
	}
	client := bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		o.BaseEndpoint = aws.String(bedrockEndpoint(cred))
	})

	if s.bedrock.clients == nil {
		s.bedrock.clients = make(map[string]*bedrockruntime.Client)
	}
	s.bedrock.clients[cred.ID] = client
	return client, nil
}

// parseBedrockPath splits the Bedrock runtime path shape
// /model/{modelID}/invoke[-with-response-stream].
func parseBedrockPath(rest string) (modelID string, streaming bool, ok bool) {
	rest, found := strings.CutPrefix(rest, "/model/")
	if !found {
		return "", false, false
	}
	if m, found := strings.CutSuffix(rest, "/invoke-with-response-stream"); found {
		return m, true, m != ""
	}
	if m, found := strings.CutSuffix(rest, "/invoke"); found {
		return m, false, m != ""
	}
	return "", false, false
}

// forwardBedrock relays a request to the AWS Bedrock runtime. Non-streaming
// invocations go through the SDK client; streaming ones are relayed as raw
// signed requests so the binary eventstream framing survives.
func (s *server) forwardBedrock(w http.ResponseWriter, r *http.Request, desc providers.Descriptor, cred credentials.VendorCredential, out *proxyOutcome) {
	if cred.Kind != credentials.KindAWS {
		out.status = http.StatusConflict
		writeError(w, http.StatusConflict, "provider "+desc.ID+" requires an aws credential", "", "credential_mismatch")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, proxyRoutePrefix+desc.ID)
	modelID, streaming, ok := parseBedrockPath(rest)
	if !ok {
		out.status = http.StatusNotFound
		writeError(w, http.StatusNotFound, "unsupported path: want /model/{modelID}/invoke or /model/{modelID}/invoke-with-response-stream", "", "invalid_request")
		return
	}
	out.model = modelID

	body, err := io.ReadAll(r.Body)
	if err != nil {
		out.status = http.StatusBadRequest
		writeError(w, http.StatusBadRequest, "failed to read request body: "+err.Error(), "", "invalid_request")
		return
	}

	if streaming {
		s.relayBedrockStream(w, r, desc, cred, modelID, body, out)
		return
	}

	client, err := s.bedrockRuntime(r.Context(), cred)
	if err != nil {
		out.err = fmt.Errorf("bedrock client: %w", err)
		writeError(w, http.StatusBadGateway, "bedrock client setup failed: "+err.Error(), "", "bad_gateway")
		return
	}

	output, err := client.InvokeModel(r.Context(), &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String(contentTypeOr(r, "application/json")),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			out.status = respErr.HTTPStatusCode()
			writeError(w, out.status, "bedrock invocation failed: "+err.Error(), "", "upstream_error")
			return
		}
		out.err = err
		writeError(w, http.StatusBadGateway, "bedrock invocation failed: "+err.Error(), "", "bad_gateway")
		return
	}

	out.status = http.StatusOK
	out.prompt, out.completion, _ = usageFromBody(output.Body)

	ct := "application/json"
	if output.ContentType != nil && *output.ContentType != "" {
		ct = *output.ContentType
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("X-AI-Bridge-Provider", desc.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output.Body)
}

// relayBedrockStream forwards an invoke-with-response-stream call as one raw
// SigV4-signed request and copies the response bytes back as they arrive.
// The eventstream frames are opaque to the bridge.
func (s *server) relayBedrockStream(w http.ResponseWriter, r *http.Request, desc providers.Descriptor, cred credentials.VendorCredential, modelID string, body []byte, out *proxyOutcome) {
	ctx := r.Context()
	upstream := bedrockEndpoint(cred) + "/model/" + escapeBedrockModelID(modelID) + "/invoke-with-response-stream"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, upstream, bytes.NewReader(body))
	if err != nil {
		out.err = err
		writeError(w, http.StatusBadGateway, "bedrock stream setup failed: "+err.Error(), "", "bad_gateway")
		return
	}
	req.Header.Set("Content-Type", contentTypeOr(r, "application/json"))
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	sum := sha256.Sum256(body)
	creds := aws.Credentials{AccessKeyID: cred.AccessKeyID, SecretAccessKey: cred.SecretAccessKey}
	if err := v4.NewSigner().SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), "bedrock", cred.Region, time.Now().UTC()); err != nil {
		out.err = err
		writeError(w, http.StatusBadGateway, "bedrock request signing failed: "+err.Error(), "", "bad_gateway")
		return
	}

	resp, err := streamClient.Do(req)
	if err != nil {
		out.err = err
		writeError(w, http.StatusBadGateway, "bedrock stream failed: "+err.Error(), "", "bad_gateway")
		return
	}
	defer resp.Body.Close()

	out.status = resp.StatusCode
	out.streamed = true

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-AI-Bridge-Provider", desc.ID)
	w.WriteHeader(resp.StatusCode)
	flushCopy(w, resp.Body)
}

// flushCopy copies the upstream body to the client, flushing after every
// read so frames arrive as they are produced.
func flushCopy(w http.ResponseWriter, r io.Reader) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// escapeBedrockModelID percent-encodes a model ID for the runtime path.
// url.PathEscape leaves ':' alone but the signed canonical path needs it
// encoded, so it is replaced by hand.
func escapeBedrockModelID(id string) string {
	return strings.ReplaceAll(url.PathEscape(id), ":", "%3A")
}

func contentTypeOr(r *http.Request, fallback string) string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return fallback
}
