// Package openai implements the ai interfaces over OpenAI-compatible APIs
// using langchaingo. It works against hosted services and local servers
// (Ollama, vLLM, Groq) alike; the extraction call runs in JSON mode at
// temperature zero and treats the model's output as untrusted input.
package openai
