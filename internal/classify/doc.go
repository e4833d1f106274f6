// Package classify sends document text to an external language-model
// classifier and stores the structured result.
//
// The client speaks the OpenAI-compatible chat-completions protocol with a
// JSON response format, so any compatible endpoint works. The API key is
// read only from the CIVIMON_LLM_API_KEY environment variable, and the
// response is treated as opaque beyond light sanitization: the rest of the
// system only surfaces the category, summary, confidence, and two boolean
// flags.
package classify
