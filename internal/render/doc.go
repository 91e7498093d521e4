// Package render compone el artefacto del certificado: template (custom o
// default embebido) escalado 2x, nombre del participante centrado en un
// anchor fijo, QR de verificación en un recuadro blanco, todo embebido en
// un documento PDF de una página.
//
// Las coordenadas son relativas a un template nominal de 1024x768 y se
// escalan con el factor de upscale. El anchor vertical del nombre es el
// mismo para todos los nombres (no hay centrado vertical por nombre).
package render
