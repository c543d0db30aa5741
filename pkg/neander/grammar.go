package neander

// The rule table, in the matcher-generator input format. Binary rules
// follow the stack protocol: the left operand is evaluated and pushed (the
// pushed chain rules), the right operand is live in AC (one byte) or Y:AC
// (two bytes, Y high); four-byte values keep byte 0 in AC and bytes 1..3 on
// the stack, byte 3 deepest. Scratch words (_t0.._t2, _op1, _op2, _ptr) are
// only live between the completion of a rule's last child and the end of
// that rule's own sequence, so no call can intervene while they hold state.

const grammarBase = `
%start stmt
%instr stmt reg pushed

# addressing
gaddr: ADDRGP2 "%a" 0
faddr: ADDRFP2 "%a" 0
faddr: ADDRLP2 "%a" 0
addr: gaddr "%0" 0
addr: faddr "%0" 0

# constants
con1: CNSTI1 "%a" 0
con1: CNSTU1 "%a" 0
con2: CNSTI2 "%a" 0
con2: CNSTU2 "%a" 0
con2: CNSTP2 "%a" 0
conN: CNSTI1 "%a" 0 ?range(1,1)
conN: CNSTU1 "%a" 0 ?range(1,1)
conN: CNSTI2 "%a" 0 ?range(1,1)
conN: CNSTU2 "%a" 0 ?range(1,1)

# materialization
reg: con1 "LDI %0" 1
reg: con2 "LDI hi(%0)\nTAY\nLDI lo(%0)" 2
reg: CNSTI4 "LDI b3(%a)\nPUSH\nLDI b2(%a)\nPUSH\nLDI hi(%a)\nPUSH\nLDI lo(%a)" 4
reg: CNSTU4 "LDI b3(%a)\nPUSH\nLDI b2(%a)\nPUSH\nLDI hi(%a)\nPUSH\nLDI lo(%a)" 4
reg: ADDRGP2 "LDI hi(%a)\nTAY\nLDI lo(%a)" 2
reg: ADDRFP2 "LFA %a" 1
reg: ADDRLP2 "LFA %a" 1

# left-operand staging
pushed: reg "PUSH" 1 ?size1
pushed: reg "PUSH\nTYA\nPUSH" 2 ?size2
pushed: reg "PUSH" 1 ?size4

# loads
reg: INDIRI1(addr) "LDA %0" 1
reg: INDIRU1(addr) "LDA %0" 1
reg: INDIRI2(addr) "LDA %0+1\nTAY\nLDA %0" 2
reg: INDIRU2(addr) "LDA %0+1\nTAY\nLDA %0" 2
reg: INDIRP2(addr) "LDA %0+1\nTAY\nLDA %0" 2
reg: INDIRI4(addr) "LDA %0+3\nPUSH\nLDA %0+2\nPUSH\nLDA %0+1\nPUSH\nLDA %0" 4
reg: INDIRU4(addr) "LDA %0+3\nPUSH\nLDA %0+2\nPUSH\nLDA %0+1\nPUSH\nLDA %0" 4
reg: INDIRI1(reg) "STA _ptr\nTYA\nSTA _ptr+1\nLDA (_ptr)" 3
reg: INDIRU1(reg) "STA _ptr\nTYA\nSTA _ptr+1\nLDA (_ptr)" 3
reg: INDIRI2(reg) "STA _ptr\nTYA\nSTA _ptr+1\nLDA (_ptr)+1\nTAY\nLDA (_ptr)" 4
reg: INDIRU2(reg) "STA _ptr\nTYA\nSTA _ptr+1\nLDA (_ptr)+1\nTAY\nLDA (_ptr)" 4
reg: INDIRP2(reg) "STA _ptr\nTYA\nSTA _ptr+1\nLDA (_ptr)+1\nTAY\nLDA (_ptr)" 4
reg: INDIRI4(reg) "STA _ptr\nTYA\nSTA _ptr+1\nLDA (_ptr)+3\nPUSH\nLDA (_ptr)+2\nPUSH\nLDA (_ptr)+1\nPUSH\nLDA (_ptr)" 6
reg: INDIRU4(reg) "STA _ptr\nTYA\nSTA _ptr+1\nLDA (_ptr)+3\nPUSH\nLDA (_ptr)+2\nPUSH\nLDA (_ptr)+1\nPUSH\nLDA (_ptr)" 6

# temporaries (frame spill slots)
reg: INDIRI1(VREGP2) "#reload" 1
reg: INDIRU1(VREGP2) "#reload" 1
reg: INDIRI2(VREGP2) "#reload" 2
reg: INDIRU2(VREGP2) "#reload" 2
reg: INDIRP2(VREGP2) "#reload" 2
reg: INDIRI4(VREGP2) "#reload" 4
reg: INDIRU4(VREGP2) "#reload" 4
stmt: ASGNI1(VREGP2,reg) "#spill" 1
stmt: ASGNU1(VREGP2,reg) "#spill" 1
stmt: ASGNI2(VREGP2,reg) "#spill" 2
stmt: ASGNU2(VREGP2,reg) "#spill" 2
stmt: ASGNP2(VREGP2,reg) "#spill" 2
stmt: ASGNI4(VREGP2,reg) "#spill" 4
stmt: ASGNU4(VREGP2,reg) "#spill" 4

# stores
stmt: ASGNI1(addr,reg) "STA %0" 1
stmt: ASGNU1(addr,reg) "STA %0" 1
stmt: ASGNI2(addr,reg) "STA %0\nTYA\nSTA %0+1" 2
stmt: ASGNU2(addr,reg) "STA %0\nTYA\nSTA %0+1" 2
stmt: ASGNP2(addr,reg) "STA %0\nTYA\nSTA %0+1" 2
stmt: ASGNI4(addr,reg) "STA %0\nPOP\nSTA %0+1\nPOP\nSTA %0+2\nPOP\nSTA %0+3" 4
stmt: ASGNU4(addr,reg) "STA %0\nPOP\nSTA %0+1\nPOP\nSTA %0+2\nPOP\nSTA %0+3" 4
stmt: ASGNI1(pushed,reg) "STA _t1\nPOP\nSTA _ptr+1\nPOP\nSTA _ptr\nLDA _t1\nSTA (_ptr)" 5
stmt: ASGNU1(pushed,reg) "STA _t1\nPOP\nSTA _ptr+1\nPOP\nSTA _ptr\nLDA _t1\nSTA (_ptr)" 5
stmt: ASGNI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _ptr+1\nPOP\nSTA _ptr\nLDA _t1\nSTA (_ptr)\nLDA _t1+1\nSTA (_ptr)+1" 7
stmt: ASGNU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _ptr+1\nPOP\nSTA _ptr\nLDA _t1\nSTA (_ptr)\nLDA _t1+1\nSTA (_ptr)+1" 7
stmt: ASGNP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _ptr+1\nPOP\nSTA _ptr\nLDA _t1\nSTA (_ptr)\nLDA _t1+1\nSTA (_ptr)+1" 7
stmt: ASGNI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _ptr+1\nPOP\nSTA _ptr\nLDA _t1\nSTA (_ptr)\nLDA _t1+1\nSTA (_ptr)+1\nLDA _t1+2\nSTA (_ptr)+2\nLDA _t1+3\nSTA (_ptr)+3" 12
stmt: ASGNU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _ptr+1\nPOP\nSTA _ptr\nLDA _t1\nSTA (_ptr)\nLDA _t1+1\nSTA (_ptr)+1\nLDA _t1+2\nSTA (_ptr)+2\nLDA _t1+3\nSTA (_ptr)+3" 12

# one-byte arithmetic
reg: ADDI1(pushed,reg) "STA _t1\nPOP\nADD _t1" 3
reg: ADDU1(pushed,reg) "STA _t1\nPOP\nADD _t1" 3
reg: SUBI1(pushed,reg) "STA _t1\nPOP\nSUB _t1" 3
reg: SUBU1(pushed,reg) "STA _t1\nPOP\nSUB _t1" 3
reg: BANDI1(pushed,reg) "STA _t1\nPOP\nAND _t1" 3
reg: BANDU1(pushed,reg) "STA _t1\nPOP\nAND _t1" 3
reg: BORI1(pushed,reg) "STA _t1\nPOP\nOR _t1" 3
reg: BORU1(pushed,reg) "STA _t1\nPOP\nOR _t1" 3
reg: BXORI1(pushed,reg) "STA _t1\nPOP\nXOR _t1" 3
reg: BXORU1(pushed,reg) "STA _t1\nPOP\nXOR _t1" 3
reg: MULI1(pushed,reg) "TAX\nPOP\nMUL" 3
reg: MULU1(pushed,reg) "TAX\nPOP\nMUL" 3
reg: DIVU1(pushed,reg) "TAX\nPOP\nDIV" 3
reg: MODU1(pushed,reg) "TAX\nPOP\nMOD" 3
reg: DIVI1(pushed,reg) "STA _op2\nTAX\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nSTA _op2+1\nPOP\nSTA _op1\nTAX\nJN %Lc\nLDI 0\nJMP %Ld\n%Lc:\nLDI 255\n%Ld:\nSTA _op1+1\nCALL _sdivw" 20
reg: MODI1(pushed,reg) "STA _op2\nTAX\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nSTA _op2+1\nPOP\nSTA _op1\nTAX\nJN %Lc\nLDI 0\nJMP %Ld\n%Lc:\nLDI 255\n%Ld:\nSTA _op1+1\nCALL _smodw" 20
reg: ADDI1(reg,conN) "INC" 1
reg: ADDU1(reg,conN) "INC" 1
reg: SUBI1(reg,conN) "DEC" 1
reg: SUBU1(reg,conN) "DEC" 1
reg: NEGI1(reg) "NEG" 1
reg: BCOMI1(reg) "NOT" 1
reg: BCOMU1(reg) "NOT" 1
reg: LSHI1(reg,conN) "SHL" 1
reg: LSHU1(reg,conN) "SHL" 1
reg: RSHU1(reg,conN) "SHR" 1
reg: RSHI1(reg,conN) "ASR" 1
reg: LSHI1(pushed,reg) "STA _t2\nPOP\nTAX\n%La:\nLDA _t2\nJZ %Lb\nDEC\nSTA _t2\nTXA\nSHL\nTAX\nJMP %La\n%Lb:\nTXA" 12
reg: LSHU1(pushed,reg) "STA _t2\nPOP\nTAX\n%La:\nLDA _t2\nJZ %Lb\nDEC\nSTA _t2\nTXA\nSHL\nTAX\nJMP %La\n%Lb:\nTXA" 12
reg: RSHU1(pushed,reg) "STA _t2\nPOP\nTAX\n%La:\nLDA _t2\nJZ %Lb\nDEC\nSTA _t2\nTXA\nSHR\nTAX\nJMP %La\n%Lb:\nTXA" 12
reg: RSHI1(pushed,reg) "STA _t2\nPOP\nTAX\n%La:\nLDA _t2\nJZ %Lb\nDEC\nSTA _t2\nTXA\nASR\nTAX\nJMP %La\n%Lb:\nTXA" 12

# two-byte arithmetic, byte-chained through the carry
reg: ADDI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nADD _t1\nTAX\nLDA _t0\nADC _t1+1\nTAY\nTXA" 8
reg: ADDU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nADD _t1\nTAX\nLDA _t0\nADC _t1+1\nTAY\nTXA" 8
reg: ADDP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nADD _t1\nTAX\nLDA _t0\nADC _t1+1\nTAY\nTXA" 8
reg: SUBI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nTAX\nLDA _t0\nSBC _t1+1\nTAY\nTXA" 8
reg: SUBU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nTAX\nLDA _t0\nSBC _t1+1\nTAY\nTXA" 8
reg: SUBP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nTAX\nLDA _t0\nSBC _t1+1\nTAY\nTXA" 8
reg: BANDI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nAND _t1\nTAX\nLDA _t0\nAND _t1+1\nTAY\nTXA" 8
reg: BANDU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nAND _t1\nTAX\nLDA _t0\nAND _t1+1\nTAY\nTXA" 8
reg: BORI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nOR _t1\nTAX\nLDA _t0\nOR _t1+1\nTAY\nTXA" 8
reg: BORU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nOR _t1\nTAX\nLDA _t0\nOR _t1+1\nTAY\nTXA" 8
reg: BXORI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nTAX\nLDA _t0\nXOR _t1+1\nTAY\nTXA" 8
reg: BXORU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nTAX\nLDA _t0\nXOR _t1+1\nTAY\nTXA" 8
reg: ADDI2(reg,conN) "INC\nTAX\nJNZ %La\nTYA\nINC\nTAY\n%La:\nTXA" 4
reg: ADDU2(reg,conN) "INC\nTAX\nJNZ %La\nTYA\nINC\nTAY\n%La:\nTXA" 4
reg: ADDP2(reg,conN) "INC\nTAX\nJNZ %La\nTYA\nINC\nTAY\n%La:\nTXA" 4
reg: SUBI2(reg,conN) "TAX\nJNZ %La\nTYA\nDEC\nTAY\n%La:\nTXA\nDEC" 4
reg: SUBU2(reg,conN) "TAX\nJNZ %La\nTYA\nDEC\nTAY\n%La:\nTXA\nDEC" 4
reg: SUBP2(reg,conN) "TAX\nJNZ %La\nTYA\nDEC\nTAY\n%La:\nTXA\nDEC" 4
reg: MULI2(pushed,reg) "STA _op2\nTYA\nSTA _op2+1\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _mulw" 20
reg: MULU2(pushed,reg) "STA _op2\nTYA\nSTA _op2+1\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _mulw" 20
reg: DIVI2(pushed,reg) "STA _op2\nTYA\nSTA _op2+1\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _sdivw" 25
reg: DIVU2(pushed,reg) "STA _op2\nTYA\nSTA _op2+1\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _udivw" 25
reg: MODI2(pushed,reg) "STA _op2\nTYA\nSTA _op2+1\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _smodw" 25
reg: MODU2(pushed,reg) "STA _op2\nTYA\nSTA _op2+1\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _umodw" 25
reg: LSHI2(pushed,reg) "STA _op2\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _shlw" 15
reg: LSHU2(pushed,reg) "STA _op2\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _shlw" 15
reg: RSHU2(pushed,reg) "STA _op2\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _shrw" 15
reg: RSHI2(pushed,reg) "STA _op2\nPOP\nSTA _op1+1\nPOP\nSTA _op1\nCALL _asrw" 15
reg: LSHI2(reg,conN) "SHL\nTAX\nTYA\nROL\nTAY\nTXA" 4
reg: LSHU2(reg,conN) "SHL\nTAX\nTYA\nROL\nTAY\nTXA" 4
reg: RSHU2(reg,conN) "TAX\nTYA\nSHR\nTAY\nTXA\nROR" 4
reg: RSHI2(reg,conN) "TAX\nTYA\nASR\nTAY\nTXA\nROR" 4
reg: BCOMI2(reg) "NOT\nTAX\nTYA\nNOT\nTAY\nTXA" 4
reg: BCOMU2(reg) "NOT\nTAX\nTYA\nNOT\nTAY\nTXA" 4
reg: NEGI2(reg) "STA _t1\nTYA\nSTA _t1+1\nLDI 0\nSUB _t1\nTAX\nLDI 0\nSBC _t1+1\nTAY\nTXA" 7

# four-byte arithmetic
reg: ADDI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nADD _t1\nSTA _t0\nLDA _t0+1\nADC _t1+1\nSTA _t0+1\nLDA _t0+2\nADC _t1+2\nSTA _t0+2\nLDA _t0+3\nADC _t1+3\nPUSH\nLDA _t0+2\nPUSH\nLDA _t0+1\nPUSH\nLDA _t0" 20
reg: ADDU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nADD _t1\nSTA _t0\nLDA _t0+1\nADC _t1+1\nSTA _t0+1\nLDA _t0+2\nADC _t1+2\nSTA _t0+2\nLDA _t0+3\nADC _t1+3\nPUSH\nLDA _t0+2\nPUSH\nLDA _t0+1\nPUSH\nLDA _t0" 20
reg: SUBI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nSTA _t0\nLDA _t0+1\nSBC _t1+1\nSTA _t0+1\nLDA _t0+2\nSBC _t1+2\nSTA _t0+2\nLDA _t0+3\nSBC _t1+3\nPUSH\nLDA _t0+2\nPUSH\nLDA _t0+1\nPUSH\nLDA _t0" 20
reg: SUBU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nSTA _t0\nLDA _t0+1\nSBC _t1+1\nSTA _t0+1\nLDA _t0+2\nSBC _t1+2\nSTA _t0+2\nLDA _t0+3\nSBC _t1+3\nPUSH\nLDA _t0+2\nPUSH\nLDA _t0+1\nPUSH\nLDA _t0" 20
reg: BANDI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0+3\nAND _t1+3\nPUSH\nLDA _t0+2\nAND _t1+2\nPUSH\nLDA _t0+1\nAND _t1+1\nPUSH\nLDA _t0\nAND _t1" 18
reg: BANDU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0+3\nAND _t1+3\nPUSH\nLDA _t0+2\nAND _t1+2\nPUSH\nLDA _t0+1\nAND _t1+1\nPUSH\nLDA _t0\nAND _t1" 18
reg: BORI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0+3\nOR _t1+3\nPUSH\nLDA _t0+2\nOR _t1+2\nPUSH\nLDA _t0+1\nOR _t1+1\nPUSH\nLDA _t0\nOR _t1" 18
reg: BORU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0+3\nOR _t1+3\nPUSH\nLDA _t0+2\nOR _t1+2\nPUSH\nLDA _t0+1\nOR _t1+1\nPUSH\nLDA _t0\nOR _t1" 18
reg: BXORI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0+3\nXOR _t1+3\nPUSH\nLDA _t0+2\nXOR _t1+2\nPUSH\nLDA _t0+1\nXOR _t1+1\nPUSH\nLDA _t0\nXOR _t1" 18
reg: BXORU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0+3\nXOR _t1+3\nPUSH\nLDA _t0+2\nXOR _t1+2\nPUSH\nLDA _t0+1\nXOR _t1+1\nPUSH\nLDA _t0\nXOR _t1" 18
reg: NEGI4(reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nLDI 0\nSUB _t1\nSTA _t0\nLDI 0\nSBC _t1+1\nSTA _t0+1\nLDI 0\nSBC _t1+2\nSTA _t0+2\nLDI 0\nSBC _t1+3\nPUSH\nLDA _t0+2\nPUSH\nLDA _t0+1\nPUSH\nLDA _t0" 16
reg: BCOMI4(reg) "NOT\nSTA _t0\nPOP\nNOT\nSTA _t0+1\nPOP\nNOT\nSTA _t0+2\nPOP\nNOT\nPUSH\nLDA _t0+2\nPUSH\nLDA _t0+1\nPUSH\nLDA _t0" 12
reg: BCOMU4(reg) "NOT\nSTA _t0\nPOP\nNOT\nSTA _t0+1\nPOP\nNOT\nSTA _t0+2\nPOP\nNOT\nPUSH\nLDA _t0+2\nPUSH\nLDA _t0+1\nPUSH\nLDA _t0" 12

# conversions
reg: CVTI1(reg) "" 0 ?cvf1
reg: CVTU1(reg) "" 0 ?cvf1
reg: CVTI1(reg) "" 0 ?cvf2
reg: CVTU1(reg) "" 0 ?cvf2
reg: CVTI1(reg) "TAX\nPOP\nPOP\nPOP\nTXA" 4 ?cvf4
reg: CVTU1(reg) "TAX\nPOP\nPOP\nPOP\nTXA" 4 ?cvf4
reg: CVTI2(reg) "" 0 ?cvf2
reg: CVTU2(reg) "" 0 ?cvf2
reg: CVTP2(reg) "" 0 ?cvf2
reg: CVTI2(reg) "TAX\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nTAY\nTXA" 5 ?cvf1s
reg: CVTU2(reg) "TAX\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nTAY\nTXA" 5 ?cvf1s
reg: CVTI2(reg) "TAX\nLDI 0\nTAY\nTXA" 3 ?cvf1u
reg: CVTU2(reg) "TAX\nLDI 0\nTAY\nTXA" 3 ?cvf1u
reg: CVTP2(reg) "TAX\nLDI 0\nTAY\nTXA" 3 ?cvf1u
reg: CVTI2(reg) "TAX\nPOP\nTAY\nPOP\nPOP\nTXA" 4 ?cvf4
reg: CVTU2(reg) "TAX\nPOP\nTAY\nPOP\nPOP\nTXA" 4 ?cvf4
reg: CVTP2(reg) "TAX\nPOP\nTAY\nPOP\nPOP\nTXA" 4 ?cvf4
reg: CVTI4(reg) "STA _t2\nTYA\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nPUSH\nPUSH\nTYA\nPUSH\nLDA _t2" 6 ?cvf2s
reg: CVTU4(reg) "STA _t2\nTYA\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nPUSH\nPUSH\nTYA\nPUSH\nLDA _t2" 6 ?cvf2s
reg: CVTI4(reg) "STA _t2\nLDI 0\nPUSH\nPUSH\nTYA\nPUSH\nLDA _t2" 5 ?cvf2u
reg: CVTU4(reg) "STA _t2\nLDI 0\nPUSH\nPUSH\nTYA\nPUSH\nLDA _t2" 5 ?cvf2u
reg: CVTI4(reg) "TAX\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nPUSH\nPUSH\nPUSH\nTXA" 6 ?cvf1s
reg: CVTU4(reg) "TAX\nJN %La\nLDI 0\nJMP %Lb\n%La:\nLDI 255\n%Lb:\nPUSH\nPUSH\nPUSH\nTXA" 6 ?cvf1s
reg: CVTI4(reg) "TAX\nLDI 0\nPUSH\nPUSH\nPUSH\nTXA" 4 ?cvf1u
reg: CVTU4(reg) "TAX\nLDI 0\nPUSH\nPUSH\nPUSH\nTXA" 4 ?cvf1u
reg: CVTI4(reg) "" 0 ?cvf4
reg: CVTU4(reg) "" 0 ?cvf4

# statements
stmt: reg "" 0 ?size1
stmt: reg "" 0 ?size2
stmt: reg "ADDSP 3" 1 ?size4
stmt: LABELV "%a:" 0
stmt: JUMPV(addr) "JMP %0" 1
stmt: JUMPV(reg) "STA _ptr\nTYA\nSTA _ptr+1\nJMP (_ptr)" 3

# one-byte comparisons
stmt: EQI1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJZ %a" 4
stmt: EQU1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJZ %a" 4
stmt: NEI1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJNZ %a" 4
stmt: NEU1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJNZ %a" 4
stmt: LTI1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJN %a" 4
stmt: LEI1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJLE %a" 4
stmt: GTI1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJGT %a" 4
stmt: GEI1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJGE %a" 4
stmt: LTU1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJC %a" 4
stmt: LEU1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJBE %a" 4
stmt: GTU1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJA %a" 4
stmt: GEU1(pushed,reg) "STA _t1\nPOP\nCMP _t1\nJNC %a" 4

# two-byte comparisons
stmt: EQI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nSTA _t2\nLDA _t0\nXOR _t1+1\nOR _t2\nJZ %a" 9
stmt: EQU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nSTA _t2\nLDA _t0\nXOR _t1+1\nOR _t2\nJZ %a" 9
stmt: EQP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nSTA _t2\nLDA _t0\nXOR _t1+1\nOR _t2\nJZ %a" 9
stmt: NEI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nSTA _t2\nLDA _t0\nXOR _t1+1\nOR _t2\nJNZ %a" 9
stmt: NEU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nSTA _t2\nLDA _t0\nXOR _t1+1\nOR _t2\nJNZ %a" 9
stmt: NEP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nXOR _t1\nSTA _t2\nLDA _t0\nXOR _t1+1\nOR _t2\nJNZ %a" 9
stmt: LTI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nLDA _t0\nSBC _t1+1\nJN %a" 8
stmt: GEI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nLDA _t0\nSBC _t1+1\nJGE %a" 8
stmt: LEI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nSTA _t2\nLDA _t0\nSBC _t1+1\nJN %a\nJNZ %La\nLDA _t2\nJZ %a\n%La:" 10
stmt: GTI2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nSTA _t2\nLDA _t0\nSBC _t1+1\nJN %La\nJNZ %a\nLDA _t2\nJNZ %a\n%La:" 10
stmt: LTU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nLDA _t0\nSBC _t1+1\nJC %a" 8
stmt: LTP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nLDA _t0\nSBC _t1+1\nJC %a" 8
stmt: GEU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nLDA _t0\nSBC _t1+1\nJNC %a" 8
stmt: GEP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nLDA _t0\nSBC _t1+1\nJNC %a" 8
stmt: LEU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nSTA _t2\nLDA _t0\nSBC _t1+1\nJC %a\nOR _t2\nJZ %a" 10
stmt: LEP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nSTA _t2\nLDA _t0\nSBC _t1+1\nJC %a\nOR _t2\nJZ %a" 10
stmt: GTU2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nSTA _t2\nLDA _t0\nSBC _t1+1\nJC %La\nOR _t2\nJNZ %a\n%La:" 10
stmt: GTP2(pushed,reg) "STA _t1\nTYA\nSTA _t1+1\nPOP\nSTA _t0\nPOP\nSUB _t1\nSTA _t2\nLDA _t0\nSBC _t1+1\nJC %La\nOR _t2\nJNZ %a\n%La:" 10

# four-byte comparisons
stmt: EQI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nXOR _t1\nSTA _t2\nLDA _t0+1\nXOR _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nXOR _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nXOR _t1+3\nOR _t2\nJZ %a" 18
stmt: EQU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nXOR _t1\nSTA _t2\nLDA _t0+1\nXOR _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nXOR _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nXOR _t1+3\nOR _t2\nJZ %a" 18
stmt: NEI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nXOR _t1\nSTA _t2\nLDA _t0+1\nXOR _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nXOR _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nXOR _t1+3\nOR _t2\nJNZ %a" 18
stmt: NEU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nXOR _t1\nSTA _t2\nLDA _t0+1\nXOR _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nXOR _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nXOR _t1+3\nOR _t2\nJNZ %a" 18
stmt: LTI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nLDA _t0+1\nSBC _t1+1\nLDA _t0+2\nSBC _t1+2\nLDA _t0+3\nSBC _t1+3\nJN %a" 16
stmt: GEI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nLDA _t0+1\nSBC _t1+1\nLDA _t0+2\nSBC _t1+2\nLDA _t0+3\nSBC _t1+3\nJGE %a" 16
stmt: LTU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nLDA _t0+1\nSBC _t1+1\nLDA _t0+2\nSBC _t1+2\nLDA _t0+3\nSBC _t1+3\nJC %a" 16
stmt: GEU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nLDA _t0+1\nSBC _t1+1\nLDA _t0+2\nSBC _t1+2\nLDA _t0+3\nSBC _t1+3\nJNC %a" 16
stmt: LEI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nSTA _t2\nLDA _t0+1\nSBC _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nSBC _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nSBC _t1+3\nJN %a\nJNZ %La\nLDA _t2\nJZ %a\n%La:" 18
stmt: GTI4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nSTA _t2\nLDA _t0+1\nSBC _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nSBC _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nSBC _t1+3\nJN %La\nJNZ %a\nLDA _t2\nJNZ %a\n%La:" 18
stmt: LEU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nSTA _t2\nLDA _t0+1\nSBC _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nSBC _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nSBC _t1+3\nJC %a\nJNZ %La\nLDA _t2\nJZ %a\n%La:" 18
stmt: GTU4(pushed,reg) "STA _t1\nPOP\nSTA _t1+1\nPOP\nSTA _t1+2\nPOP\nSTA _t1+3\nPOP\nSTA _t0\nPOP\nSTA _t0+1\nPOP\nSTA _t0+2\nPOP\nSTA _t0+3\nLDA _t0\nSUB _t1\nSTA _t2\nLDA _t0+1\nSBC _t1+1\nOR _t2\nSTA _t2\nLDA _t0+2\nSBC _t1+2\nOR _t2\nSTA _t2\nLDA _t0+3\nSBC _t1+3\nJC %La\nJNZ %a\nLDA _t2\nJNZ %a\n%La:" 18

# arguments (rightmost pushed first; one-byte values pad to the stack slot)
stmt: ARGI1(reg) "TAX\nLDI 0\nPUSH\nTXA\nPUSH" 3
stmt: ARGU1(reg) "TAX\nLDI 0\nPUSH\nTXA\nPUSH" 3
stmt: ARGI2(reg) "TAX\nTYA\nPUSH\nTXA\nPUSH" 3
stmt: ARGU2(reg) "TAX\nTYA\nPUSH\nTXA\nPUSH" 3
stmt: ARGP2(reg) "TAX\nTYA\nPUSH\nTXA\nPUSH" 3
stmt: ARGI4(reg) "PUSH" 1
stmt: ARGU4(reg) "PUSH" 1

# calls (caller pops arguments)
reg: CALLI1(addr) "#call" 6
reg: CALLU1(addr) "#call" 6
reg: CALLI2(addr) "#call" 6
reg: CALLU2(addr) "#call" 6
reg: CALLP2(addr) "#call" 6
reg: CALLI4(addr) "#call4" 8
reg: CALLU4(addr) "#call4" 8
stmt: CALLV(addr) "#call" 6
reg: CALLI1(reg) "#callptr" 8
reg: CALLU1(reg) "#callptr" 8
reg: CALLI2(reg) "#callptr" 8
reg: CALLU2(reg) "#callptr" 8
reg: CALLP2(reg) "#callptr" 8
reg: CALLI4(reg) "#callptr4" 10
reg: CALLU4(reg) "#callptr4" 10
stmt: CALLV(reg) "#callptr" 8

# returns
stmt: RETI1(reg) "#ret" 1
stmt: RETU1(reg) "#ret" 1
stmt: RETI2(reg) "#ret" 1
stmt: RETU2(reg) "#ret" 1
stmt: RETP2(reg) "#ret" 1
stmt: RETI4(reg) "#ret" 1
stmt: RETU4(reg) "#ret" 1
stmt: RETV "#ret" 1
`

// X-indexed fast paths for constant-base array access; gated behind the
// indexed-ops feature.
const grammarIndexed = `
reg: INDIRI1(ADDP2(gaddr,reg)) "TAX\nLDA %0,X" 2
reg: INDIRU1(ADDP2(gaddr,reg)) "TAX\nLDA %0,X" 2
stmt: ASGNI1(ADDP2(gaddr,pushed),reg) "STA _t1\nPOP\nPOP\nTAX\nLDA _t1\nSTA %0,X" 4
stmt: ASGNU1(ADDP2(gaddr,pushed),reg) "STA _t1\nPOP\nPOP\nTAX\nLDA _t1\nSTA %0,X" 4
`
