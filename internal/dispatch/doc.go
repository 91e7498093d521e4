// Package dispatch implementa el envío de certificados por email.
//
// El Scheduler recibe lotes de certificados, los parte en chunks y
// somete cada envío individual al pool de workers. Cada envío corre la
// máquina de estados NOT_SENT → SENDING → {SENT | FAILED} y persiste
// cada transición, así el polling del frontend ve progreso en vivo.
package dispatch
