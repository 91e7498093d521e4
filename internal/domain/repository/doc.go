// Package repository define los contratos de persistencia del dominio.
//
// Los tipos acá son los del dominio (Certificate, Participant, Event,
// Template, AuditEntry) y las interfaces que cualquier driver de storage
// debe implementar. Las implementaciones viven en internal/store.
//
// Los valores de status son strings literales y forman parte del contrato
// externo (la API los expone tal cual): no renombrar.
package repository
